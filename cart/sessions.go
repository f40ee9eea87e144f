package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sessions owns one Store per browser session id. Carts live only in memory;
// a process restart drops them the same way a full page reload would.
type Sessions struct {
	mu      sync.Mutex
	stores  map[string]*Store
	idleTTL time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewSessions(idleTTL time.Duration, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		stores:  make(map[string]*Store),
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger,
	}
}

// Get returns the cart for sessionID, creating an empty one on first use.
func (s *Sessions) Get(sessionID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[sessionID]
	if !ok {
		st = NewStore()
		st.now = s.now
		st.touched = s.now()
		s.stores[sessionID] = st
	}
	return st
}

// Lookup is Get without the create.
func (s *Sessions) Lookup(sessionID string) (*Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[sessionID]
	return st, ok
}

// Sweep evicts carts that have not been touched for idleTTL and returns how many went.
func (s *Sessions) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, st := range s.stores {
		if st.lastTouched().Before(cutoff) {
			delete(s.stores, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps idle carts every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("evicted idle carts", zap.Int("count", n))
			}
		}
	}
}
