package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidQuantity, http.StatusBadRequest},
		{models.ErrPaymentNotCompleted, http.StatusBadRequest},
		{models.ErrPaymentAmountMismatch, http.StatusBadRequest},
		{models.ErrInvalidToken, http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrEventNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", models.ErrTicketNotFound), http.StatusNotFound},
		{models.ErrInsufficientInventory, http.StatusConflict},
		{models.ErrPaymentAlreadyProcessed, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestRespondWithServiceError(t *testing.T) {
	cases := []struct {
		err         error
		wantStatus  int
		wantMessage string
	}{
		{models.ErrEventNotFound, http.StatusNotFound, "Event not found"},
		{models.NewValidationError("please add a title"), http.StatusBadRequest, "Please add a title"},
		{models.ErrForbidden, http.StatusForbidden, "Not authorized to perform this action"},
		{models.ErrInsufficientInventory, http.StatusConflict, "Not enough tickets available"},
		{errors.New("pq: relation does not exist"), http.StatusInternalServerError, "Server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		RespondWithServiceError(c, tc.err)

		assert.Equal(t, tc.wantStatus, w.Code)
		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.wantMessage, body.Message)
	}
}

func TestNewPagination(t *testing.T) {
	first := NewPagination(1, 10, 25)
	require.NotNil(t, first.Next)
	assert.Equal(t, 2, first.Next.Page)
	assert.Nil(t, first.Prev)

	last := NewPagination(3, 10, 25)
	assert.Nil(t, last.Next)
	require.NotNil(t, last.Prev)
	assert.Equal(t, 2, last.Prev.Page)

	exact := NewPagination(2, 10, 20)
	assert.Nil(t, exact.Next)
}

func queryContext(target string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestParsePageAndSort(t *testing.T) {
	c := queryContext("/?page=3&limit=500&date[gte]=2025-01-01&date[lt]=2025-02-01T00:00:00Z")

	page, limit := ParsePage(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxLimit, limit)

	filters, ok := ParseDateFilters(c)
	require.True(t, ok)
	assert.Len(t, filters, 2)

	sort := ParseSort("-date, title,password")
	assert.Equal(t, []repository.SortField{{Field: "date", Desc: true}, {Field: "title"}}, sort)

	// gin caches the parsed query per context, so bad input needs its own.
	c = queryContext("/?page=abc&date[between]=x")
	page, limit = ParsePage(c)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultLimit, limit)
	_, ok = ParseDateFilters(c)
	assert.False(t, ok)

	assert.Equal(t, []string{"title", "date"}, ParseSelect(" title, ,date"))
}

func TestPassSigner(t *testing.T) {
	signer := NewPassSigner("secret")
	claims := PassClaims{OrderID: uuid.New(), UserID: uuid.New(), PaymentID: "pi_123"}

	payload := signer.Sign(claims)
	parsed, sig, err := signer.Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, claims, parsed)
	assert.True(t, signer.Valid(parsed, sig))

	other := NewPassSigner("other")
	assert.False(t, other.Valid(parsed, sig))

	parsed.PaymentID = "pi_456"
	assert.False(t, signer.Valid(parsed, sig))

	for _, bad := range []string{"", "a;b;c;d", "order:x;user:y;payment:z;signature:s", "order:1;user:2;payment:3"} {
		_, _, err := signer.Parse(bad)
		assert.ErrorIs(t, err, ErrMalformedPass, bad)
	}
}
