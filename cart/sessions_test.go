package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessions_GetCreatesOncePerSession(t *testing.T) {
	s := NewSessions(time.Hour, nil)

	a := s.Get("s1")
	b := s.Get("s1")
	c := s.Get("s2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestSessions_CartsAreIndependent(t *testing.T) {
	s := NewSessions(time.Hour, nil)

	s.Get("s1").AddOrIncrease(item("p1", 10), 1)

	assert.Equal(t, 1, s.Get("s1").Len())
	assert.Equal(t, 0, s.Get("s2").Len())
}

func TestSessions_Lookup(t *testing.T) {
	s := NewSessions(time.Hour, nil)

	_, ok := s.Lookup("s1")
	assert.False(t, ok)

	s.Get("s1")
	_, ok = s.Lookup("s1")
	assert.True(t, ok)
}

func TestSessions_SweepEvictsIdleCarts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(30*time.Minute, nil)
	s.now = func() time.Time { return now }

	s.Get("old").AddOrIncrease(item("p1", 1), 1)
	now = now.Add(20 * time.Minute)
	s.Get("fresh").AddOrIncrease(item("p1", 1), 1)
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	_, ok := s.Lookup("old")
	assert.False(t, ok)
	_, ok = s.Lookup("fresh")
	assert.True(t, ok)
}

func TestSessions_SweepDisabledWithoutTTL(t *testing.T) {
	s := NewSessions(0, nil)
	s.Get("s1")

	assert.Equal(t, 0, s.Sweep())
}
