package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertTotalMatchesLines(t *testing.T, cart *Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, item := range cart.Items {
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, cart.TotalAmount.Equal(sum), "total %s != sum of lines %s", cart.TotalAmount, sum)
}

func TestNewCart_ExpiresInADay(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cart := NewCart(uuid.New(), now)

	assert.Equal(t, now.Add(24*time.Hour), cart.ExpiresAt)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())
	assert.False(t, cart.Expired(now))
	assert.True(t, cart.Expired(now.Add(24*time.Hour)))
}

func TestCart_AddItemReplacesQuantity(t *testing.T) {
	cart := NewCart(uuid.New(), time.Now())
	ticketID, eventID := uuid.New(), uuid.New()
	price := decimal.RequireFromString("10.00")

	require.NoError(t, cart.AddItem(ticketID, eventID, 2, price))
	require.NoError(t, cart.AddItem(ticketID, eventID, 3, price))

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].Subtotal.Equal(decimal.RequireFromString("30.00")))
	assertTotalMatchesLines(t, cart)
}

func TestCart_AddItemRejectsNonPositiveQuantity(t *testing.T) {
	cart := NewCart(uuid.New(), time.Now())

	err := cart.AddItem(uuid.New(), uuid.New(), 0, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, cart.Items)
}

func TestCart_TotalInvariantAcrossMutations(t *testing.T) {
	cart := NewCart(uuid.New(), time.Now())
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	event := uuid.New()

	require.NoError(t, cart.AddItem(a, event, 1, decimal.RequireFromString("12.50")))
	assertTotalMatchesLines(t, cart)
	require.NoError(t, cart.AddItem(b, event, 4, decimal.RequireFromString("7.25")))
	assertTotalMatchesLines(t, cart)
	require.NoError(t, cart.AddItem(c, event, 2, decimal.RequireFromString("99.99")))
	assertTotalMatchesLines(t, cart)

	require.NoError(t, cart.UpdateQuantity(b, 1))
	assertTotalMatchesLines(t, cart)

	assert.True(t, cart.RemoveItem(a))
	assertTotalMatchesLines(t, cart)
	assert.False(t, cart.RemoveItem(a))

	assert.True(t, cart.TotalAmount.Equal(decimal.RequireFromString("207.23")))

	cart.Clear()
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())
}

func TestCart_UpdateQuantity(t *testing.T) {
	cart := NewCart(uuid.New(), time.Now())
	ticketID := uuid.New()
	require.NoError(t, cart.AddItem(ticketID, uuid.New(), 2, decimal.NewFromInt(10)))

	t.Run("rejects quantity below one", func(t *testing.T) {
		assert.ErrorIs(t, cart.UpdateQuantity(ticketID, 0), ErrInvalidQuantity)
		assert.ErrorIs(t, cart.UpdateQuantity(ticketID, -3), ErrInvalidQuantity)
		assert.Equal(t, 2, cart.Items[0].Quantity)
	})

	t.Run("missing line", func(t *testing.T) {
		err := cart.UpdateQuantity(uuid.New(), 1)
		assert.ErrorIs(t, err, ErrCartItemNotFound)
		assert.True(t, IsNotFound(err))
	})

	t.Run("recomputes subtotal from stored price", func(t *testing.T) {
		require.NoError(t, cart.UpdateQuantity(ticketID, 5))
		assert.True(t, cart.Items[0].Subtotal.Equal(decimal.NewFromInt(50)))
		assert.True(t, cart.TotalAmount.Equal(decimal.NewFromInt(50)))
	})
}

func TestCart_Renew(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cart := NewCart(uuid.New(), start)
	require.NoError(t, cart.AddItem(uuid.New(), uuid.New(), 1, decimal.NewFromInt(1)))

	later := start.Add(48 * time.Hour)
	require.True(t, cart.Expired(later))
	cart.Renew(later)

	assert.Empty(t, cart.Items)
	assert.False(t, cart.Expired(later))
	assert.Equal(t, later.Add(CartTTL), cart.ExpiresAt)
}
