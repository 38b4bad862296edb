// Package sync drives the roadmap refresh cycle: probe the metadata endpoint,
// compare fingerprints, fetch the full dataset when stale, reconcile and swap
// the shared item set. It owns every rule about races between cycles; the
// fetch and store layers stay oblivious.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robby/roadmap/internal/domain"
	"github.com/robby/roadmap/internal/platform"
	"github.com/robby/roadmap/internal/store"
)

// ErrSuperseded is returned when a fetch finished after a newer probe had
// already started a fresher cycle. The stale result is discarded, never
// reconciled (last-probe-wins).
var ErrSuperseded = errors.New("sync cycle superseded by a newer probe")

// Prober issues the lightweight metadata request.
type Prober interface {
	FetchMeta(ctx context.Context) (domain.Meta, error)
}

// Fetcher retrieves the full validated snapshot plus its fingerprint.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*domain.Snapshot, string, error)
}

// Logger is the minimal logging surface the loop needs.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Result reports what one sync cycle did.
type Result struct {
	Changed     bool   // A new snapshot was reconciled in
	Items       int    // Item count after the cycle
	Fingerprint string // Fingerprint after the cycle
}

// Syncer coordinates sync cycles against a single store.
type Syncer struct {
	prober  Prober
	fetcher Fetcher
	store   *store.Store
	logger  Logger

	now func() time.Time

	mu         sync.Mutex
	generation uint64
}

// Options tune the loop. Cadence and push triggering are policy knobs, not
// part of the feed contract.
type Options struct {
	Interval time.Duration     // Polling cadence for Run; 0 disables polling
	Notifier platform.Notifier // Push-trigger source for Run; nil disables push
}

// New creates a syncer. logger may be nil for silence.
func New(prober Prober, fetcher Fetcher, st *store.Store, logger Logger) *Syncer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Syncer{
		prober:  prober,
		fetcher: fetcher,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
}

// SyncOnce runs a single probe-compare-fetch-reconcile cycle.
//
// Any error leaves the previously reconciled state fully intact: network and
// decode failures abort before reconciliation, schema-invalid payloads are
// rejected by the fetcher, and superseded fetches are discarded. The store is
// only touched by the final atomic swap.
func (s *Syncer) SyncOnce(ctx context.Context) (Result, error) {
	meta, err := s.prober.FetchMeta(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("probe failed: %w", err)
	}

	if s.upToDate(meta) {
		// Board already reflects the remote. No fetch issued.
		return Result{Changed: false, Items: s.store.Items().Len(), Fingerprint: s.store.Fingerprint()}, nil
	}

	gen := s.beginCycle()

	snap, fingerprint, err := s.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch failed: %w", err)
	}

	set, err := s.commit(gen, snap, fingerprint)
	if err != nil {
		return Result{}, err
	}

	s.logger.Printf("[sync] reconciled snapshot %s (%d items, fingerprint %s)",
		snap.Version, set.Len(), fingerprint)

	return Result{Changed: true, Items: set.Len(), Fingerprint: fingerprint}, nil
}

// upToDate reports whether the board already reflects the probed remote
// state. A published content hash compares against the stored fingerprint.
// Hash-less metas compare their version against the stored snapshot version
// instead: the fetcher hashes the raw body for its fingerprint on such feeds,
// so the two channels never agree byte for byte.
func (s *Syncer) upToDate(meta domain.Meta) bool {
	_, ver := s.store.Current()
	if ver.Fingerprint == "" {
		return false
	}
	if meta.ContentHash != "" {
		return meta.ContentHash == ver.Fingerprint
	}
	return meta.Version == ver.Version || meta.Version == ver.Fingerprint
}

// beginCycle stamps a new cycle. Any fetch still in flight from an earlier
// stamp is now stale and will fail to commit.
func (s *Syncer) beginCycle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// commit reconciles and swaps in the new set, but only if no newer cycle has
// started since gen was stamped. Reconciliation is all-or-nothing: readers
// never observe an intermediate state.
func (s *Syncer) commit(gen uint64, snap *domain.Snapshot, fingerprint string) (*store.ItemSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return nil, ErrSuperseded
	}

	prev, _ := s.store.Current()
	next := store.Reconcile(prev, snap)
	s.store.Replace(next, store.Version{
		Fingerprint: fingerprint,
		Version:     snap.Version,
		GeneratedAt: snap.GeneratedAt,
		SyncedAt:    s.now(),
	})

	return next, nil
}

// Run keeps the board fresh until ctx is cancelled: an immediate initial
// cycle, then one per tick, plus one per push signal when a notifier is
// configured. Cycle failures are logged and the loop continues; the previous
// board stays served, visibly stale rather than blank.
func (s *Syncer) Run(ctx context.Context, opts Options) error {
	if _, err := s.SyncOnce(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		s.logger.Printf("[sync] initial cycle failed: %v", err)
	}

	var tick <-chan time.Time
	if opts.Interval > 0 {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var signals <-chan platform.UpdateSignal
	if opts.Notifier != nil {
		ch, cancel := opts.Notifier.Subscribe()
		defer cancel()
		signals = ch
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.cycle(ctx, "timer")
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			s.cycle(ctx, sig.Origin)
		}
	}
}

// cycle runs one loop iteration, folding expected failures into log lines.
func (s *Syncer) cycle(ctx context.Context, origin string) {
	res, err := s.SyncOnce(ctx)
	switch {
	case errors.Is(err, ErrSuperseded):
		s.logger.Printf("[sync] %s cycle superseded, result discarded", origin)
	case err != nil:
		s.logger.Printf("[sync] %s cycle failed: %v", origin, err)
	case res.Changed:
		s.logger.Printf("[sync] %s cycle updated board to %d items", origin, res.Items)
	}
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}
