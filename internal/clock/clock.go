package clock

import (
	"sync"
	"time"
)

// Source supplies time samples in microseconds.
type Source interface {
	// NowMicros returns a monotonically non-decreasing timestamp.
	NowMicros() uint64

	// WallMicros returns the current wall-clock time. It may move backwards.
	WallMicros() int64
}

// System implements Source on the process clocks. NowMicros is anchored to
// the wall time at construction and advanced by the monotonic reading, so it
// is comparable with producer timestamps but immune to later clock steps.
type System struct {
	base     time.Time
	baseWall uint64
}

// NewSystem returns a System anchored at the current time.
func NewSystem() *System {
	now := time.Now()
	return &System{base: now, baseWall: uint64(now.UnixMicro())}
}

// NowMicros returns the anchored monotonic time in microseconds.
func (s *System) NowMicros() uint64 {
	return s.baseWall + uint64(time.Since(s.base).Microseconds())
}

// WallMicros returns the wall-clock time with the monotonic reading stripped.
func (s *System) WallMicros() int64 {
	return time.Now().Round(0).UnixMicro()
}

// Manual is a manually controlled Source for tests.
type Manual struct {
	mu   sync.Mutex
	now  uint64
	wall int64
}

// NewManual returns a Manual where both readings start at us.
func NewManual(us uint64) *Manual {
	return &Manual{now: us, wall: int64(us)}
}

// NowMicros returns the mocked monotonic time.
func (m *Manual) NowMicros() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// WallMicros returns the mocked wall time.
func (m *Manual) WallMicros() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wall
}

// Advance moves both readings forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += uint64(d.Microseconds())
	m.wall += d.Microseconds()
}

// StepWall shifts only the wall reading by d, which may be negative.
// The monotonic reading is untouched, as with a real clock step.
func (m *Manual) StepWall(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wall += d.Microseconds()
}
