package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrMalformedPass = errors.New("malformed pass data")

// PassClaims is what a ticket pass QR code carries.
type PassClaims struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	PaymentID string
}

// PassSigner produces and checks HMAC-SHA256 signed pass payloads of the form
// order:<id>;user:<id>;payment:<id>;signature:<hex>.
type PassSigner struct {
	secret []byte
}

func NewPassSigner(secret string) *PassSigner {
	return &PassSigner{secret: []byte(secret)}
}

func (p *PassSigner) Sign(claims PassClaims) string {
	return fmt.Sprintf("order:%s;user:%s;payment:%s;signature:%s",
		claims.OrderID.String(),
		claims.UserID.String(),
		claims.PaymentID,
		p.signature(claims),
	)
}

// Parse splits a payload into its claims and signature without checking it.
func (p *PassSigner) Parse(data string) (PassClaims, string, error) {
	parts := strings.Split(strings.TrimSpace(data), ";")
	if len(parts) != 4 {
		return PassClaims{}, "", ErrMalformedPass
	}
	prefixes := []string{"order:", "user:", "payment:", "signature:"}
	values := make([]string, len(parts))
	for i, part := range parts {
		if !strings.HasPrefix(part, prefixes[i]) {
			return PassClaims{}, "", ErrMalformedPass
		}
		values[i] = strings.TrimPrefix(part, prefixes[i])
	}

	orderID, err := uuid.Parse(values[0])
	if err != nil {
		return PassClaims{}, "", ErrMalformedPass
	}
	userID, err := uuid.Parse(values[1])
	if err != nil {
		return PassClaims{}, "", ErrMalformedPass
	}
	return PassClaims{OrderID: orderID, UserID: userID, PaymentID: values[2]}, values[3], nil
}

// Valid reports whether signature matches claims.
func (p *PassSigner) Valid(claims PassClaims, signature string) bool {
	return hmac.Equal([]byte(p.signature(claims)), []byte(signature))
}

func (p *PassSigner) signature(claims PassClaims) string {
	data := fmt.Sprintf("%s:%s:%s", claims.OrderID.String(), claims.PaymentID, claims.UserID.String())
	h := hmac.New(sha256.New, p.secret)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
