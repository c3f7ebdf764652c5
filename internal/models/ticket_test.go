package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicket_DerivedFields(t *testing.T) {
	ticket := Ticket{Quantity: 5, QuantitySold: 3}
	assert.Equal(t, 2, ticket.Available())
	assert.False(t, ticket.SoldOut())

	ticket.QuantitySold = 5
	assert.Equal(t, 0, ticket.Available())
	assert.True(t, ticket.SoldOut())
}

func TestTicket_OnSale(t *testing.T) {
	now := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	before, after := now.Add(-time.Hour), now.Add(time.Hour)

	assert.True(t, (&Ticket{}).OnSale(now))
	assert.True(t, (&Ticket{SaleStartDate: &before, SaleEndDate: &after}).OnSale(now))
	assert.False(t, (&Ticket{SaleStartDate: &after}).OnSale(now))
	assert.False(t, (&Ticket{SaleEndDate: &before}).OnSale(now))
}

func TestEnums(t *testing.T) {
	assert.True(t, Category("Arts & Theater").Valid())
	assert.False(t, Category("Opera").Valid())
	assert.True(t, TicketTypeEarlyBird.Valid())
	assert.False(t, TicketType("Balcony").Valid())
	assert.True(t, RoleOrganizer.CanOrganize())
	assert.False(t, RoleShopper.CanOrganize())
}

func TestStringList_ScanAndValue(t *testing.T) {
	v, err := StringList{"a", "b"}.Value()
	assert.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	var l StringList
	assert.NoError(t, l.Scan([]byte(`["x"]`)))
	assert.Equal(t, StringList{"x"}, l)
	assert.NoError(t, l.Scan(nil))
	assert.Empty(t, l)
}
