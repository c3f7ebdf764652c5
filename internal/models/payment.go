package models

const PaymentMethodCard = "Credit Card"

type PaymentInfo struct {
	ID       string `gorm:"size:255;uniqueIndex" json:"id"`
	Status   string `gorm:"size:32" json:"status"`
	Method   string `gorm:"size:32" json:"method"`
	LastFour string `gorm:"size:4" json:"lastFour,omitempty"`
}

// PaymentIntent is the gateway's view of a card payment.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret,omitempty"`
	AmountCents  int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

const PaymentIntentSucceeded = "succeeded"

func (pi *PaymentIntent) Succeeded() bool {
	return pi.Status == PaymentIntentSucceeded
}
