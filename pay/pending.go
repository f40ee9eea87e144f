package pay

import (
	"context"
	"sync/atomic"
)

// Pending is a payment result that has not arrived yet.
// It resolves at most once; later Resolve calls are ignored.
type Pending struct {
	resolved atomic.Bool
	ch       chan Result
}

func NewPending() *Pending {
	return &Pending{ch: make(chan Result, 1)}
}

// Resolve delivers r and reports whether it was the first result.
func (p *Pending) Resolve(r Result) bool {
	if !p.resolved.CompareAndSwap(false, true) {
		return false
	}
	p.ch <- r
	return true
}

// Await blocks until the result arrives or ctx ends.
func (p *Pending) Await(ctx context.Context) (Result, error) {
	select {
	case r := <-p.ch:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
