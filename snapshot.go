package khf

// Snapshot is the serializable state of a Forest: its topology, current root
// list and committed key count, enough for a persist adapter to reconstruct
// it via Restore. Pending updates and the in-flight domain size are not
// captured; the in-flight appending root is captured only on request.
type Snapshot struct {
	Fanouts       []uint64
	Roots         []Node
	Keys          uint64
	AppendingRoot *Node // nil if the caller chose not to persist it
}

// Snapshot captures the forest's current committed state. If
// includeAppendingRoot is false, AppendingRoot is nil and a subsequent
// Restore draws a fresh one — safe, since an appending root only ever signs
// identifiers that have never been committed, so whether to persist it is
// left as an explicit caller choice.
func (f *Forest) Snapshot(includeAppendingRoot bool) Snapshot {
	roots := make([]Node, len(f.roots))
	copy(roots, f.roots)

	snap := Snapshot{
		Fanouts: append([]uint64(nil), f.topology.fanouts...),
		Roots:   roots,
		Keys:    f.keys,
	}
	if includeAppendingRoot {
		ar := f.appendingRoot
		snap.AppendingRoot = &ar
	}
	return snap
}

// Restore rebuilds a Forest from a Snapshot taken by Snapshot. A nil Rand or
// Hasher in cfg is replaced with its default, the same as New; cfg.Fanouts
// is ignored, since the topology comes from the snapshot. If the snapshot
// carries no appending root, a fresh one is drawn.
func Restore(cfg Config, snap Snapshot) (*Forest, error) {
	if cfg.Rand == nil {
		cfg.Rand = DefaultRand()
	}
	if cfg.Hasher == nil {
		cfg.Hasher = NewSHA3Hasher()
	}

	topology, err := NewTopology(snap.Fanouts)
	if err != nil {
		return nil, err
	}

	roots := make([]Node, len(snap.Roots))
	copy(roots, snap.Roots)

	appendingRoot := newRootNode(randomKey(cfg.Rand))
	if snap.AppendingRoot != nil {
		appendingRoot = *snap.AppendingRoot
	}

	return &Forest{
		topology:      topology,
		roots:         roots,
		keys:          snap.Keys,
		updatedKeys:   newUpdateSet(),
		inFlightKeys:  snap.Keys,
		appendingRoot: appendingRoot,
		rng:           cfg.Rand,
		hasher:        cfg.Hasher,
	}, nil
}
