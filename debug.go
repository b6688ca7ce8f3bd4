package khf

import "github.com/davecgh/go-spew/spew"

// Dump returns a deep, human-readable representation of the forest's
// committed state, for debugging and test failure diagnostics — the same
// spew.Sdump idiom the go-verkle fork's randomized tree test reaches for
// when dumping an opaque failing input (tree_test.go's quick.Check harness).
func (f *Forest) Dump() string {
	return spew.Sdump(f.Snapshot(true))
}
