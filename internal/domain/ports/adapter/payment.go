package adapter

import "time"

// Callback is the normalized, typed form of a provider webhook payload.
// Normalization is provider-specific; the reconciliation use case only ever
// sees this struct, never the raw wire shape.
type Callback struct {
	MerchantAccount   string
	OrderReference    string
	Amount            float64
	Currency          string
	AuthCode          string
	CardPan           string
	TransactionStatus string
	ReasonCode        string // stringified; providers send numbers or strings
	Reason            string // human-readable decline reason, may be empty
	MerchantSignature string
	// Raw keeps the decoded payload verbatim for the audit column.
	Raw map[string]interface{}
}

// CheckoutForm is the signed field set the client posts to the provider.
type CheckoutForm struct {
	ActionURL string
	Fields    map[string]string
}

// Ack is the response body the provider expects after a processed callback.
type Ack struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
	Time           int64  `json:"time"`
	Signature      string `json:"signature"`
}

// PaymentProvider is the hex port for the external payment system.
type PaymentProvider interface {
	Name() string
	// Configured reports whether merchant credentials are present. Checkout
	// must fail loudly (and expire the created row) when they are not.
	Configured() bool
	// BuildCheckout computes the signed redirect fields for one line item.
	BuildCheckout(orderReference string, orderDate time.Time, amount float64, currency, productName string) (CheckoutForm, error)
	// ParseCallback normalizes a raw webhook body into a typed Callback.
	ParseCallback(raw []byte) (*Callback, error)
	// VerifyCallback checks the merchant signature over the callback fields.
	VerifyCallback(cb *Callback) error
	// BuildAck signs the acknowledgment the provider expects back.
	BuildAck(orderReference string, now time.Time) Ack
}
