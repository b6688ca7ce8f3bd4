// Package khf implements a Keyed Hash Forest: an in-memory, bounded,
// dynamically growing, revocable family of symmetric keys indexed by
// non-negative integers. Every key is a pure function of a small set of
// random subtree roots and a fixed tree topology; revoking a key replaces
// the subtree root that produced it, and a subsequent commit makes the old
// value unrecoverable from the committed state while every other key keeps
// its value.
//
// The forest is single-threaded, non-reentrant, and performs no I/O. It
// does not authenticate its own state against tampering. Callers needing
// concurrency, persistence, or observability should wrap it the way the
// persist and orchestrator packages do.
package khf

import "io"

// Forest is a Keyed Hash Forest. The zero value is not usable; construct
// one with New.
type Forest struct {
	topology *Topology

	roots []Node
	keys  uint64

	updatedKeys  *updateSet
	inFlightKeys uint64

	appendingRoot Node

	rng    io.Reader
	hasher Hasher
}

// Config configures a new Forest. Zero-valued fields are replaced with
// defaults by New.
type Config struct {
	// Fanouts is the per-level branching factor of the virtual tree, each
	// required to be >= 2. If nil, DefaultFanouts is used.
	Fanouts []uint64
	// Rand is the CSPRNG capability used to seed every random root. If
	// nil, DefaultRand() is used.
	Rand io.Reader
	// Hasher is the cryptographic hash capability. If nil, NewSHA3Hasher()
	// is used.
	Hasher Hasher
}

// DefaultFanouts is a reasonable default topology: four levels of
// fanout-4, so each level-1 subtree covers 256 leaves.
var DefaultFanouts = []uint64{4, 4, 4, 4}

// DefaultConfig returns a Config with standard defaults.
func DefaultConfig() Config {
	return Config{
		Fanouts: DefaultFanouts,
		Rand:    DefaultRand(),
		Hasher:  NewSHA3Hasher(),
	}
}

// New creates an empty Forest: a single random (0,0) root, zero keys.
// Zero-valued Config fields are replaced with defaults.
func New(cfg Config) (*Forest, error) {
	if cfg.Fanouts == nil {
		cfg.Fanouts = DefaultFanouts
	}
	if cfg.Rand == nil {
		cfg.Rand = DefaultRand()
	}
	if cfg.Hasher == nil {
		cfg.Hasher = NewSHA3Hasher()
	}

	topology, err := NewTopology(cfg.Fanouts)
	if err != nil {
		return nil, err
	}

	return &Forest{
		topology:      topology,
		roots:         []Node{newRootNode(randomKey(cfg.Rand))},
		keys:          0,
		updatedKeys:   newUpdateSet(),
		inFlightKeys:  0,
		appendingRoot: newRootNode(randomKey(cfg.Rand)),
		rng:           cfg.Rand,
		hasher:        cfg.Hasher,
	}, nil
}

// Keys returns the committed domain size: Derive is defined for every
// identifier in [0, Keys()), and beyond that range via the append path.
func (f *Forest) Keys() uint64 {
	return f.keys
}

// Fragmentation returns the number of subtree roots currently covering the
// committed domain.
func (f *Forest) Fragmentation() uint64 {
	return uint64(len(f.roots))
}

// IsConsolidated reports whether the forest is a single root at the
// whole-domain sentinel (0,0) — minimum fragmentation.
func (f *Forest) IsConsolidated() bool {
	return len(f.roots) == 1 && f.roots[0].Pos.isRoot()
}

// UpdatedKeys returns the identifiers queued for revocation since the last
// commit, in ascending order.
func (f *Forest) UpdatedKeys() []uint64 {
	return f.updatedKeys.Sorted()
}

// Derive returns the key for identifier x. Two calls for the same x between
// commits return identical bytes; a pending Update does not change what
// Derive returns until the next Commit.
func (f *Forest) Derive(x uint64) Key {
	if x >= f.keys {
		if x+1 > f.inFlightKeys {
			f.inFlightKeys = x + 1
		}
		return f.appendingRoot.Derive(f.topology, f.topology.LeafPosition(x), f.hasher)
	}
	idx := f.locate(x)
	return f.roots[idx].Derive(f.topology, f.topology.LeafPosition(x), f.hasher)
}

// Update queues x for revocation and returns its current-epoch key (the
// same value Derive(x) would return right now). The revocation only takes
// effect on the next Commit.
func (f *Forest) Update(x uint64) Key {
	f.updatedKeys.Insert(x)
	return f.Derive(x)
}

// Truncate sets the domain size that will take effect on the next Commit.
// It does not touch the committed root list or key count until then, so
// callers may still Derive identifiers in the shrinking range one last
// time before they vanish.
func (f *Forest) Truncate(n uint64) {
	f.inFlightKeys = n
}

// locate finds the unique root covering leaf x, via binary search on the
// root list's leaf ranges.
func (f *Forest) locate(x uint64) int {
	pos := f.topology.LeafPosition(x)
	lo, hi := 0, len(f.roots)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		r := f.roots[mid]
		switch {
		case f.topology.IsAncestor(r.Pos, pos):
			return mid
		case f.topology.End(r.Pos) <= f.topology.Start(pos):
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	panic("khf: locate: no covering root found for a committed identifier (corrupt root list)")
}

// firstRootEndAfter returns the index of the first root in roots whose leaf
// range ends after x, defaulting to the last root if none does.
func firstRootEndAfter(topo *Topology, roots []Node, x uint64) int {
	for i, r := range roots {
		if x < topo.End(r.Pos) {
			return i
		}
	}
	return len(roots) - 1
}

// firstRootEndAtLeast returns the index of the first root in roots whose
// leaf range ends at or after x, or len(roots) if none does.
func firstRootEndAtLeast(topo *Topology, roots []Node, x uint64) int {
	for i, r := range roots {
		if x <= topo.End(r.Pos) {
			return i
		}
	}
	return len(roots)
}

// replace is the engine behind update, append, and consolidation (spec
// §4.3.7): it splices donor's coverage of [a, b), at the given level, into
// the root list, fragmenting the roots at the boundaries as needed.
// Precondition: a <= b, level >= 0, and b <= end of the last root (the
// range must already lie inside the currently covered domain).
func (f *Forest) replace(level, a, b uint64, donor Node) {
	if level == 0 {
		f.roots = []Node{donor}
		return
	}

	if f.IsConsolidated() {
		upper := b
		if f.inFlightKeys > upper {
			upper = f.inFlightKeys
		}
		f.roots = f.roots[0].Coverage(f.topology, level, 0, upper, f.hasher)
	}

	orig := f.roots

	i := firstRootEndAfter(f.topology, orig, a)

	var patch []Node
	if f.topology.Start(orig[i].Pos) != a {
		patch = append(patch, orig[i].Coverage(f.topology, level, f.topology.Start(orig[i].Pos), a, f.hasher)...)
	}
	patch = append(patch, donor.Coverage(f.topology, level, a, b, f.hasher)...)

	j := len(orig)
	if b < f.topology.End(orig[len(orig)-1].Pos) {
		j = firstRootEndAtLeast(f.topology, orig, b) + 1
		patchRoot := orig[j-1]
		if f.topology.End(patchRoot.Pos) != b {
			patch = append(patch, patchRoot.Coverage(f.topology, level, b, f.topology.End(patchRoot.Pos), f.hasher)...)
		}
	}

	result := make([]Node, 0, i+len(patch)+(len(orig)-j))
	result = append(result, orig[:i]...)
	result = append(result, patch...)
	result = append(result, orig[j:]...)
	f.roots = result
}

// randomRootNode draws a fresh random (0,0) root node.
func (f *Forest) randomRootNode() Node {
	return newRootNode(randomKey(f.rng))
}

// Commit executes the pending transition: queued updates, appends, and any
// truncation become the new committed state. It returns the identifiers
// that were pending, in ascending order.
func (f *Forest) Commit() []uint64 {
	if f.inFlightKeys >= f.keys {
		if f.updatedKeys.FullyCovers(f.inFlightKeys) {
			f.roots = []Node{f.randomRootNode()}
		} else {
			if f.inFlightKeys > f.keys {
				f.replace(1, f.keys, f.inFlightKeys, f.appendingRoot)
			}
			for _, run := range f.updatedKeys.Runs() {
				f.replace(1, run.Start, run.End, f.randomRootNode())
			}
		}
	} else {
		f.updatedKeys.RemoveAtLeast(f.inFlightKeys)
		switch {
		case f.updatedKeys.FullyCovers(f.inFlightKeys):
			f.roots = []Node{f.randomRootNode()}
		case f.IsConsolidated():
			f.roots = f.roots[0].Coverage(f.topology, 1, 0, f.inFlightKeys, f.hasher)
		default:
			idx := firstRootEndAfter(f.topology, f.roots, f.inFlightKeys)
			root := f.roots[idx]
			tail := root.Coverage(f.topology, 1, f.topology.Start(root.Pos), f.inFlightKeys, f.hasher)
			kept := make([]Node, 0, idx+len(tail))
			kept = append(kept, f.roots[:idx]...)
			kept = append(kept, tail...)
			f.roots = kept
		}
	}

	result := f.updatedKeys.Sorted()
	f.appendingRoot = f.randomRootNode()
	f.keys = f.inFlightKeys
	f.updatedKeys.Clear()
	return result
}

// Consolidate collapses fragmentation according to mechanism and returns
// the identifiers whose key value may have changed.
func (f *Forest) Consolidate(m Mechanism) []uint64 {
	if !m.ranged {
		if m.level == 0 {
			ids := idRange(0, f.keys)
			f.roots = []Node{f.randomRootNode()}
			f.updatedKeys.Clear()
			return ids
		}
		f.replace(m.level, 0, f.keys, f.randomRootNode())
		f.updatedKeys.Clear()
		return idRange(0, f.keys)
	}

	a, b := m.a, m.b
	if b > f.inFlightKeys {
		f.inFlightKeys = b
	}
	if b > f.keys {
		f.replace(1, f.keys, b, f.appendingRoot)
		f.keys = b
	}
	f.replace(m.level, a, b, f.randomRootNode())
	f.updatedKeys.RemoveRange(a, b)
	return idRange(a, b)
}

// idRange returns [a, b) as a slice, or nil if empty.
func idRange(a, b uint64) []uint64 {
	if b <= a {
		return nil
	}
	out := make([]uint64, 0, b-a)
	for x := a; x < b; x++ {
		out = append(out, x)
	}
	return out
}
