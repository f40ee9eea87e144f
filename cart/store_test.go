package cart

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"shopfront/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, price int64) models.CartLineItem {
	return models.CartLineItem{ID: id, Title: "product " + id, UnitPrice: decimal.NewFromInt(price)}
}

func TestAddOrIncrease_SameIDAccumulates(t *testing.T) {
	s := NewStore()

	s.AddOrIncrease(item("p1", 100), 1)
	s.AddOrIncrease(item("p1", 100), 1)

	v := s.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, 2, v.Items[0].Quantity)
	assert.Equal(t, "200", v.Subtotal.String())
	assert.Equal(t, 2, v.ItemCount)
}

func TestAddOrIncrease_NewLineUsesDelta(t *testing.T) {
	s := NewStore()

	s.AddOrIncrease(item("p1", 10), 3)
	s.AddOrIncrease(item("p2", 5), 1)

	v := s.View()
	require.Len(t, v.Items, 2)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.Equal(t, "35", v.Subtotal.String())
}

func TestAddOrIncrease_InvalidDeltaIsNoop(t *testing.T) {
	s := NewStore()

	s.AddOrIncrease(item("p1", 10), 0)
	s.AddOrIncrease(item("p1", 10), -4)
	s.AddOrIncrease(item("", 10), 1)

	assert.Equal(t, 0, s.Len())
}

func TestAddOrIncrease_NoUpperBound(t *testing.T) {
	s := NewStore()
	s.AddOrIncrease(item("p1", 1), 1_000_000)
	s.AddOrIncrease(item("p1", 1), 1_000_000)

	assert.Equal(t, 2_000_000, s.View().Items[0].Quantity)
}

func TestDecreaseOrRemove_ToZeroRemoves(t *testing.T) {
	s := NewStore()
	s.AddOrIncrease(item("p1", 100), 1)

	s.DecreaseOrRemove("p1", 1)

	assert.Equal(t, 0, s.Len())
}

func TestDecreaseOrRemove_BelowZeroRemoves(t *testing.T) {
	s := NewStore()
	s.AddOrIncrease(item("p1", 100), 2)

	s.DecreaseOrRemove("p1", 5)

	assert.Equal(t, 0, s.Len())
}

func TestDecreaseOrRemove_Subtracts(t *testing.T) {
	s := NewStore()
	s.AddOrIncrease(item("p1", 100), 5)

	s.DecreaseOrRemove("p1", 2)

	assert.Equal(t, 3, s.View().Items[0].Quantity)
}

func TestDecreaseOrRemove_UnknownIDIsNoop(t *testing.T) {
	s := NewStore()
	s.AddOrIncrease(item("p1", 100), 1)

	s.DecreaseOrRemove("nope", 1)
	s.DecreaseOrRemove("p1", 0)

	assert.Equal(t, 1, s.View().Items[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	s := NewStore()
	s.AddOrIncrease(item("p1", 1), 4)
	s.AddOrIncrease(item("p2", 1), 1)

	s.Remove("p1")
	s.Remove("missing")
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "p2", s.View().Items[0].ID)

	s.Clear()
	v := s.View()
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, v.Items)
	assert.True(t, v.Subtotal.IsZero())
}

// no sequence of operations may leave a line with quantity <= 0
// or two lines with the same id
func TestStore_RandomSequencesKeepQuantitiesPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d"}

	for round := 0; round < 200; round++ {
		s := NewStore()
		for step := 0; step < 50; step++ {
			id := ids[rng.Intn(len(ids))]
			delta := rng.Intn(5) - 1
			switch rng.Intn(4) {
			case 0, 1:
				s.AddOrIncrease(item(id, 3), delta)
			case 2:
				s.DecreaseOrRemove(id, delta)
			case 3:
				s.Remove(id)
			}

			seen := map[string]bool{}
			for _, it := range s.Snapshot().Items() {
				require.GreaterOrEqual(t, it.Quantity, 1)
				require.False(t, seen[it.ID], "duplicate line %s", it.ID)
				seen[it.ID] = true
			}
		}
	}
}

func TestSnapshot_IsolatedFromLaterMutations(t *testing.T) {
	s := NewStore()
	s.AddOrIncrease(item("p1", 100), 2)

	snap := s.Snapshot()
	s.AddOrIncrease(item("p1", 100), 5)
	s.AddOrIncrease(item("p2", 1), 1)

	items := snap.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "200", snap.Totals().Subtotal.String())

	// mutating the returned slice must not leak back into the snapshot
	items[0].Quantity = 99
	assert.Equal(t, 2, snap.Items()[0].Quantity)
}

func TestSnapshot_Empty(t *testing.T) {
	snap := NewStore().Snapshot()
	assert.True(t, snap.IsEmpty())
	assert.Nil(t, snap.Items())
}

func TestStore_ConcurrentIncrementsAllApplied(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddOrIncrease(item("p1", 1), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.View().Items[0].Quantity)
}

func TestStore_TouchedOnMutation(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return now }

	s.AddOrIncrease(item("p1", 1), 1)

	assert.Equal(t, now, s.View().UpdatedAt)
}
