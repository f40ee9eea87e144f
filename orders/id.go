package orders

import (
	"strconv"
	"sync/atomic"
	"time"
)

// IDGenerator issues "ORD"-prefixed ids from the nanosecond clock. Two calls
// in the same nanosecond still get distinct, increasing ids.
type IDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

func (g *IDGenerator) Next() string {
	for {
		n := g.now().UnixNano()
		last := g.last.Load()
		if n <= last {
			n = last + 1
		}
		if g.last.CompareAndSwap(last, n) {
			return "ORD" + strconv.FormatInt(n, 10)
		}
	}
}
