package model

import "time"

type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "CREATED"  // checkout initiated; awaiting provider callback
	PaymentStatusApproved PaymentStatus = "APPROVED" // provider confirmed the charge; terminal
	PaymentStatusDeclined PaymentStatus = "DECLINED" // provider rejected the charge; terminal
	PaymentStatusExpired  PaymentStatus = "EXPIRED"  // abandoned or misconfigured; terminal
)

// Terminal reports whether no further status transition is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusDeclined || s == PaymentStatusExpired
}

const ProviderWayForPay = "wayforpay"

// Payment records one checkout attempt against the external provider.
// OrderReference is client-generated, globally unique and immutable; it is the
// idempotency key for all webhook processing.
type Payment struct {
	ID             string // UUID
	OrderReference string // pkg_<packageID>_u<userID>_<unix ms>
	Provider       string // currently always "wayforpay"
	Amount         float64
	Currency       string // ISO code, "UAH" for this product
	Status         PaymentStatus
	PaidAt         *time.Time // set when approved
	FailReason     *string    // set when declined/expired
	UserID         *string
	PackageID      *int64
	// ProviderPayload keeps the last provider callback/stage verbatim for
	// audit and debugging (JSONB in the database).
	ProviderPayload map[string]interface{}
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
