package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

// minGoVersion is the fallback minimum when no go.mod is reachable, for
// example when the binary runs from an installed location. Kept in step with
// the module's go directive.
const minGoVersion = "1.21"

// checkToolchain refuses to run on a Go runtime older than the module's go
// directive. Release builds of the runtime report "go1.N.M"; anything else
// (devel builds, gotip) is waved through.
func checkToolchain() error {
	have, ok := strings.CutPrefix(runtime.Version(), "go")
	if !ok {
		return nil
	}

	want := minGoVersion
	if modPath := findGoMod(); modPath != "" {
		if v, err := goDirective(modPath); err == nil && v != "" {
			want = v
		}
	}

	haveV, wantV := "v"+have, "v"+want
	if !semver.IsValid(haveV) || !semver.IsValid(wantV) {
		return nil
	}
	if semver.Compare(haveV, wantV) < 0 {
		return fmt.Errorf("go runtime %s is older than the minimum supported %s", have, want)
	}
	return nil
}

// goDirective parses a go.mod and returns its go directive version.
func goDirective(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if mf.Go == nil {
		return "", nil
	}
	return mf.Go.Version, nil
}

// findGoMod walks up from the working directory looking for a go.mod file.
// Returns the empty string when none is found before the filesystem root.
func findGoMod() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		modPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(modPath); err == nil {
			return modPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
