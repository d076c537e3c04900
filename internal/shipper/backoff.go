package shipper

import (
	"math/rand"
	"time"
)

// retryDelay paces reconnect attempts for one Run loop. The base delay
// starts at initial and doubles after every failure up to ceiling. The
// wait handed out is drawn from [base/2, base), so agents that lose the
// collector together do not reconnect in lockstep.
type retryDelay struct {
	initial time.Duration
	ceiling time.Duration
	base    time.Duration
	rand    func() float64 // uniform in [0, 1)
}

func newRetryDelay(initial, ceiling time.Duration, rnd func() float64) *retryDelay {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &retryDelay{initial: initial, ceiling: ceiling, base: initial, rand: rnd}
}

// failed returns the wait before the next attempt and raises the base.
func (r *retryDelay) failed() time.Duration {
	half := r.base / 2
	wait := half + time.Duration(r.rand()*float64(r.base-half))
	r.base = min(2*r.base, r.ceiling)
	return wait
}

// connected drops the base back to initial.
func (r *retryDelay) connected() {
	r.base = r.initial
}
