// Package orchestrator fans out operations across multiple independent
// Keyed Hash Forests — for example, one forest per tenant or per storage
// shard — concurrently. It owns no key material itself; it only sequences
// calls into forests registered with it.
//
// The core khf.Forest is explicitly single-threaded and non-reentrant:
// callers must never call two of its methods concurrently on the same
// instance. Orchestrator upholds that by giving each registered forest
// exactly one goroutine at a time and fanning out across *different*
// forests, using golang.org/x/sync/errgroup to collect the first error and
// cancel the rest rather than hand-rolling a WaitGroup and error channel.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lemosyne/khf"
	"github.com/lemosyne/khf/telemetry"
)

// Orchestrator owns a named collection of forests and runs operations
// across all of them concurrently.
type Orchestrator struct {
	mu     sync.RWMutex
	shards map[string]*khf.Forest

	metrics *telemetry.Metrics
	log     *telemetry.Logger
}

// New creates an empty Orchestrator.
func New() *Orchestrator {
	return &Orchestrator{
		shards:  make(map[string]*khf.Forest),
		metrics: telemetry.NewMetrics(nil),
		log:     telemetry.Default().Module("orchestrator"),
	}
}

// Register adds a forest under name. It returns an error if name is already
// registered.
func (o *Orchestrator) Register(name string, f *khf.Forest) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.shards[name]; exists {
		return fmt.Errorf("orchestrator: shard %q already registered", name)
	}
	o.shards[name] = f
	return nil
}

// Deregister removes name from the orchestrator, if present.
func (o *Orchestrator) Deregister(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.shards, name)
}

// Forest returns the forest registered under name, if any.
func (o *Orchestrator) Forest(name string) (*khf.Forest, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	f, ok := o.shards[name]
	return f, ok
}

// Names returns every registered shard name, sorted.
func (o *Orchestrator) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.shards))
	for name := range o.shards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshotShards returns a stable copy of the registered shards to iterate
// over without holding the lock during potentially slow per-shard work.
func (o *Orchestrator) snapshotShards() map[string]*khf.Forest {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]*khf.Forest, len(o.shards))
	for name, f := range o.shards {
		out[name] = f
	}
	return out
}

// CommitAll calls Commit on every registered forest concurrently and
// returns each shard's pending-identifier list, keyed by name. If ctx is
// canceled, shards already in flight still finish (Commit never blocks on
// I/O), but the error is still returned.
func (o *Orchestrator) CommitAll(ctx context.Context) (map[string][]uint64, error) {
	shards := o.snapshotShards()

	var mu sync.Mutex
	results := make(map[string][]uint64, len(shards))

	eg, ctx := errgroup.WithContext(ctx)
	for name, f := range shards {
		name, f := name, f
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids := f.Commit()
			mu.Lock()
			results[name] = ids
			mu.Unlock()
			o.metrics.RecordCommit()
			o.metrics.Observe(f.Fragmentation(), f.Keys())
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		o.log.Error("CommitAll failed", "error", err)
		return results, err
	}
	o.log.Info("CommitAll finished", "shards", len(shards))
	return results, nil
}

// ConsolidateAll applies mechanism to every registered forest concurrently
// and returns each shard's affected-identifier list, keyed by name.
func (o *Orchestrator) ConsolidateAll(ctx context.Context, mechanism khf.Mechanism) (map[string][]uint64, error) {
	shards := o.snapshotShards()

	var mu sync.Mutex
	results := make(map[string][]uint64, len(shards))

	eg, ctx := errgroup.WithContext(ctx)
	for name, f := range shards {
		name, f := name, f
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids := f.Consolidate(mechanism)
			mu.Lock()
			results[name] = ids
			mu.Unlock()
			o.metrics.RecordConsolidate()
			o.metrics.Observe(f.Fragmentation(), f.Keys())
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		o.log.Error("ConsolidateAll failed", "error", err)
		return results, err
	}
	o.log.Info("ConsolidateAll finished", "shards", len(shards))
	return results, nil
}
