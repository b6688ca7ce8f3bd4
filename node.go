package khf

import "encoding/binary"

// KeySize is the fixed width, in bytes, of every key the forest derives.
// The module pins this at 32 bytes — the output width of the default
// Hasher (SHA3-256) — rather than carrying a size type parameter through
// every exported type.
const KeySize = 32

// Key is a single derived or seed key.
type Key [KeySize]byte

// Node is a seed key bound to a position. It represents the entire subtree
// rooted at Pos: any descendant key is a pure function of Key, Pos, the
// descendant's position, and the forest's Topology. Nodes are immutable;
// new nodes are produced by fresh-seed construction or by derivation, never
// by mutating an existing one.
type Node struct {
	Pos Position
	Key Key
}

// newRootNode builds a Node at the (0,0) whole-domain sentinel from an
// explicit key. This is the only constructor the core ever needs: every
// other Node is the result of Derive or Coverage.
func newRootNode(key Key) Node {
	return Node{Pos: Position{}, Key: key}
}

// Derive computes the key at target by folding a hash chain along the
// topology path from n.Pos down to target. If target is n.Pos itself, n's
// own key is returned with no hashing.
func (n Node) Derive(topo *Topology, target Position, h Hasher) Key {
	if n.Pos == target {
		return n.Key
	}

	acc := n.Key
	path := topo.Path(n.Pos, target)
	var level, index [8]byte
	for {
		pos, ok := path.Next()
		if !ok {
			break
		}
		binary.LittleEndian.PutUint64(level[:], pos.Level)
		binary.LittleEndian.PutUint64(index[:], pos.Index)

		digest := h.New()
		digest.Write(acc[:])
		digest.Write(level[:])
		digest.Write(index[:])

		var next Key
		copy(next[:], digest.Sum(nil))
		acc = next
	}
	return acc
}

// Coverage derives the minimal covering set of subtree roots for the leaf
// range [start, end), each at level >= level, deriving each root's key from
// n along the way. The returned nodes are in start-increasing order and
// their leaf ranges exactly partition [start, end).
func (n Node) Coverage(topo *Topology, level, start, end uint64, h Hasher) []Node {
	cov := topo.Coverage(level, start, end)
	var out []Node
	for {
		pos, ok := cov.Next()
		if !ok {
			return out
		}
		out = append(out, Node{Pos: pos, Key: n.Derive(topo, pos, h)})
	}
}
