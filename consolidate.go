package khf

// Mechanism selects how Consolidate collapses fragmentation. It is the
// idiomatic Go stand-in for a sum type with per-variant payloads: construct
// one with Full, Leveled, Ranged, or RangedLeveled.
type Mechanism struct {
	ranged bool
	level  uint64
	a, b   uint64
}

// Full collapses the whole forest to a single fresh (0,0) root. Equivalent
// to Leveled(0).
func Full() Mechanism {
	return Mechanism{}
}

// Leveled replaces [0, keys) with the coverage of a fresh random root at
// the given target level.
func Leveled(level uint64) Mechanism {
	return Mechanism{level: level}
}

// Ranged replaces [a, b) via a fresh random root, at the finest grain
// (level 1). Equivalent to RangedLeveled(1, a, b).
func Ranged(a, b uint64) Mechanism {
	return Mechanism{ranged: true, level: 1, a: a, b: b}
}

// RangedLeveled replaces [a, b) via a fresh random root at the given target
// level, extending the domain to b first if needed.
func RangedLeveled(level, a, b uint64) Mechanism {
	return Mechanism{ranged: true, level: level, a: a, b: b}
}
