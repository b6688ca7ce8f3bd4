package khf

import (
	"bytes"
	"testing"
)

func TestDeriveIsDeterministic(t *testing.T) {
	topo := mustTopology(t, []uint64{4, 4})
	root := newRootNode(Key{1, 2, 3})
	h := NewSHA3Hasher()
	target := topo.LeafPosition(5)

	a := root.Derive(topo, target, h)
	b := root.Derive(topo, target, h)
	if a != b {
		t.Error("Derive is not deterministic for repeated calls")
	}
}

func TestDeriveOwnPositionReturnsOwnKey(t *testing.T) {
	root := newRootNode(Key{9, 9, 9})
	topo := mustTopology(t, []uint64{4, 4})
	h := NewSHA3Hasher()
	if got := root.Derive(topo, root.Pos, h); got != root.Key {
		t.Error("Derive(own position) should return the node's own key unchanged")
	}
}

func TestDeriveDiffersAcrossPositions(t *testing.T) {
	topo := mustTopology(t, []uint64{4, 4})
	root := newRootNode(Key{1, 2, 3})
	h := NewSHA3Hasher()

	k1 := root.Derive(topo, topo.LeafPosition(1), h)
	k2 := root.Derive(topo, topo.LeafPosition(2), h)
	if k1 == k2 {
		t.Error("distinct leaves should derive distinct keys with overwhelming probability")
	}
}

func TestDeriveComposesThroughIntermediateCoverage(t *testing.T) {
	// Deriving directly from a root to a leaf must equal deriving from an
	// intermediate node that the root's own Coverage produced — the core
	// composability property the replace engine relies on.
	topo := mustTopology(t, []uint64{2, 2})
	root := newRootNode(Key{5, 5, 5})
	h := NewSHA3Hasher()

	mid := root.Coverage(topo, 1, 0, 4, h)
	if len(mid) != 1 {
		t.Fatalf("expected a single level-1 node covering [0,4), got %d", len(mid))
	}

	leaf := topo.LeafPosition(3)
	direct := root.Derive(topo, leaf, h)
	viaMid := mid[0].Derive(topo, leaf, h)
	if direct != viaMid {
		t.Error("derivation through an intermediate coverage node should equal direct derivation")
	}
}

func TestForestDumpIncludesCommittedState(t *testing.T) {
	f := newTestForest(t, []uint64{2, 2})
	for x := uint64(0); x < 4; x++ {
		f.Derive(x)
	}
	f.Commit()
	dump := f.Dump()
	if dump == "" {
		t.Error("Dump() should not be empty")
	}
}

func TestNodeCoveragePartitionsAndDerivesEachPosition(t *testing.T) {
	topo := mustTopology(t, []uint64{2, 2})
	root := newRootNode(Key{7, 7, 7})
	h := NewSHA3Hasher()

	nodes := root.Coverage(topo, 1, 1, 3, h)
	if len(nodes) == 0 {
		t.Fatal("expected at least one covering node")
	}
	for _, n := range nodes {
		want := root.Derive(topo, n.Pos, h)
		if !bytes.Equal(want[:], n.Key[:]) {
			t.Errorf("coverage node at %v has key not matching direct derivation", n.Pos)
		}
	}
}
