package models

// ChargeState enumerates the lifecycle of a checkout charge record.
type ChargeState string

const (
	ChargePreparing ChargeState = "Preparing"
	ChargePending   ChargeState = "Pending"
	ChargeCommitted ChargeState = "Committed"
	ChargeCanceled  ChargeState = "Canceled"
	ChargeFailed    ChargeState = "Failed"
)

// Terminal reports whether the charge can no longer change state.
func (s ChargeState) Terminal() bool {
	switch s {
	case ChargeCommitted, ChargeCanceled, ChargeFailed:
		return true
	}
	return false
}

// ChargeInput is the request body for creating a checkout charge.
type ChargeInput struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Charge is a checkout record as returned by the payment endpoints.
type Charge struct {
	ID         string      `json:"id" cbor:"id"`
	PaymentURL string      `json:"payment_url,omitempty" cbor:"payment_url,omitempty"`
	State      ChargeState `json:"status" cbor:"status"`
	Amount     int64       `json:"amount" cbor:"amount"`
	Currency   string      `json:"currency" cbor:"currency"`
}
