package epoch

import "sync"

// recordPool recycles retire-list records across all domains. A record is
// two words; pooling them keeps a hot retire/drain cycle allocation-free.
var recordPool = sync.Pool{
	New: func() any { return new(record) },
}

func newRecord() *record {
	return recordPool.Get().(*record)
}

func putRecord(r *record) {
	r.ptr = nil
	r.next = nil
	recordPool.Put(r)
}
