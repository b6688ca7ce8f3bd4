// Package persist saves and restores a Keyed Hash Forest's committed state
// to and from a byte stream. It is the only package in this module that
// performs I/O or touches a wire format; the core khf package stays pure.
//
// Encoding uses a plain struct of exported fields handed to
// rlp.EncodeToBytes/DecodeBytes — no custom EncodeRLP/DecodeRLP needed.
package persist

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/lemosyne/khf"
	"github.com/lemosyne/khf/telemetry"
)

// Options controls what Save persists beyond the bare committed state.
type Options struct {
	// IncludeAppendingRoot persists the forest's in-flight appending root
	// too, so append-only growth across a process restart doesn't have to
	// re-derive already-observed in-flight values from a new seed. Off by
	// default: it's an explicit caller opt-in, since the appending root is
	// exposed to a wider blast radius than a committed root (it signs every
	// future append until the next commit).
	IncludeAppendingRoot bool
}

// wireNode is the RLP wire shape of a khf.Node: Key as a byte slice, since
// RLP has no native fixed-size-array primitive.
type wireNode struct {
	Level uint64
	Index uint64
	Key   []byte
}

// wireSnapshot is the RLP wire shape of a khf.Snapshot. AppendingRoot uses a
// presence flag rather than a nilable pointer, since RLP assigns no default
// meaning to a nil pointer without an explicit struct tag.
type wireSnapshot struct {
	Fanouts          []uint64
	Roots            []wireNode
	Keys             uint64
	HasAppendingRoot bool
	AppendingRoot    wireNode
}

func toWireNode(n khf.Node) wireNode {
	return wireNode{Level: n.Pos.Level, Index: n.Pos.Index, Key: n.Key[:]}
}

func fromWireNode(w wireNode) (khf.Node, error) {
	if len(w.Key) != khf.KeySize {
		return khf.Node{}, newSerializationError("node key has wrong width", nil)
	}
	var key khf.Key
	copy(key[:], w.Key)
	return khf.Node{Pos: khf.Position{Level: w.Level, Index: w.Index}, Key: key}, nil
}

func newIOError(msg string, cause error) *khf.Error {
	return &khf.Error{Kind: khf.KindIO, Message: msg, Cause: cause}
}

func newSerializationError(msg string, cause error) *khf.Error {
	return &khf.Error{Kind: khf.KindSerialization, Message: msg, Cause: cause}
}

// Save encodes f's committed state and writes it to w.
func Save(w io.Writer, f *khf.Forest, opts Options) error {
	log := telemetry.Default().Module("persist")

	snap := f.Snapshot(opts.IncludeAppendingRoot)

	wire := wireSnapshot{
		Fanouts: snap.Fanouts,
		Roots:   make([]wireNode, len(snap.Roots)),
		Keys:    snap.Keys,
	}
	for i, n := range snap.Roots {
		wire.Roots[i] = toWireNode(n)
	}
	if snap.AppendingRoot != nil {
		wire.HasAppendingRoot = true
		wire.AppendingRoot = toWireNode(*snap.AppendingRoot)
	}

	data, err := rlp.EncodeToBytes(wire)
	if err != nil {
		return newSerializationError("encoding forest snapshot", err)
	}
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write forest snapshot", "error", err)
		return newIOError("writing forest snapshot", err)
	}

	log.Info("saved forest snapshot", "keys", snap.Keys, "fragmentation", len(snap.Roots))
	return nil
}

// Load reads a snapshot written by Save and reconstructs a Forest. rng and
// hasher supply the capabilities the restored forest will use going
// forward; they need not match whatever produced the original snapshot.
func Load(r io.Reader, rng io.Reader, hasher khf.Hasher) (*khf.Forest, error) {
	log := telemetry.Default().Module("persist")

	data, err := io.ReadAll(r)
	if err != nil {
		log.Error("failed to read forest snapshot", "error", err)
		return nil, newIOError("reading forest snapshot", err)
	}

	var wire wireSnapshot
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, newSerializationError("decoding forest snapshot", err)
	}

	snap := khf.Snapshot{
		Fanouts: wire.Fanouts,
		Roots:   make([]khf.Node, len(wire.Roots)),
		Keys:    wire.Keys,
	}
	for i, w := range wire.Roots {
		n, err := fromWireNode(w)
		if err != nil {
			return nil, err
		}
		snap.Roots[i] = n
	}
	if wire.HasAppendingRoot {
		n, err := fromWireNode(wire.AppendingRoot)
		if err != nil {
			return nil, err
		}
		snap.AppendingRoot = &n
	}

	f, err := khf.Restore(khf.Config{Rand: rng, Hasher: hasher}, snap)
	if err != nil {
		return nil, newSerializationError("restoring forest from snapshot", err)
	}

	log.Info("loaded forest snapshot", "keys", snap.Keys, "fragmentation", len(snap.Roots))
	return f, nil
}
