package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// Entry is the latest known state of one pipeline.
type Entry struct {
	Pipeline  string         `json:"pipeline"`
	Heartbeat *types.Report  `json:"heartbeat,omitempty"`
	LastFrame *types.Report  `json:"last_frame,omitempty"`
	Warnings  []types.Report `json:"warnings"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store is a thread-safe in-memory entry store, keyed by pipeline name.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Report folds one engine batch into the store. A pipeline's warning list is
// replaced whenever the batch carries an evaluation result for it (heartbeat
// or warning), so cleared warnings disappear at the next tick.
func (s *Store) Report(batch []types.Report) {
	if len(batch) == 0 {
		return
	}
	type update struct {
		heartbeat *types.Report
		frame     *types.Report
		warnings  []types.Report
		evaluated bool
	}
	updates := make(map[string]*update)
	for i := range batch {
		r := batch[i]
		u := updates[r.Pipeline]
		if u == nil {
			u = &update{}
			updates[r.Pipeline] = u
		}
		switch r.Kind {
		case types.ReportFrame:
			u.frame = &r
		case types.ReportHeartBeat:
			u.heartbeat = &r
			u.evaluated = true
		case types.ReportWarning, types.ReportError:
			u.warnings = append(u.warnings, r)
			u.evaluated = true
		}
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, u := range updates {
		next := &Entry{Pipeline: name, UpdatedAt: now}
		if prev, ok := s.data[name]; ok {
			next.Heartbeat = prev.Heartbeat
			next.LastFrame = prev.LastFrame
			next.Warnings = prev.Warnings
		}
		if u.frame != nil {
			next.LastFrame = u.frame
		}
		if u.heartbeat != nil {
			next.Heartbeat = u.heartbeat
		}
		if u.evaluated {
			next.Warnings = u.warnings
		}
		s.data[name] = next
	}
}

// Get returns the Entry for the given pipeline and a boolean indicating
// whether an entry was found. The entry may be stale if TTL has elapsed.
func (s *Store) Get(pipeline string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[pipeline]
	return e, ok
}

// List returns all entries whose UpdatedAt is within the TTL, sorted by
// pipeline name. Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Pipeline < out[j].Pipeline })
	return out
}

// TTL returns the configured time-to-live.
func (s *Store) TTL() time.Duration { return s.ttl }

// Fresh reports whether e was updated within the TTL.
func (s *Store) Fresh(e *Entry) bool {
	return e.UpdatedAt.After(s.now().Add(-s.ttl))
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for name, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, name)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale pipelines", "count", n)
			}
		}
	}
}
