package monitor

import (
	"sync"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// queue is an append-only multi-producer queue drained wholesale by the
// consumer. Each queue has its own lock so frame and warning producers never
// contend with each other or with the state table.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

// drain detaches and returns everything queued so far, in push order.
func (q *queue[T]) drain() []T {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// SubmitFrame enqueues a frame delivery signal. It never blocks beyond the
// frame queue lock and is safe for concurrent use.
func (e *Engine) SubmitFrame(sig types.FrameSignal) {
	e.frames.push(sig)
}

// SubmitWarning enqueues a raw status signal. Normalization happens on the
// consumer side.
func (e *Engine) SubmitWarning(sig types.RawWarningSignal) {
	e.warnings.push(sig)
}

// Backlog returns how many frame and warning signals wait for the next cycle.
func (e *Engine) Backlog() (frames, warnings int) {
	return e.frames.len(), e.warnings.len()
}
