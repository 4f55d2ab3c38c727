package hashmap

import "github.com/buggy-murray/lockfree-hashmap/internal/hashmap/epoch"

// Version information for the lock-free hash map.
const (
	// Version is the current version of the library.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides static information about the map implementation.
type Info struct {
	// Version is the library version string.
	Version string

	// Algorithm names the hash table construction.
	Algorithm string

	// Reclamation names the memory reclamation scheme.
	Reclamation string

	// MaxThreads is the registration slot limit per map.
	MaxThreads int
}

// GetInfo returns information about the map implementation.
//
// Example:
//
//	info := hashmap.GetInfo()
//	fmt.Printf("hashmap %s (%s)\n", info.Version, info.Algorithm)
func GetInfo() Info {
	return Info{
		Version:     Version,
		Algorithm:   "split-ordered lists (JACM 2006)",
		Reclamation: "3-epoch EBR (Fraser 2004)",
		MaxThreads:  epoch.MaxThreads,
	}
}
