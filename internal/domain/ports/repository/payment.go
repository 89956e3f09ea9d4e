package repository

import (
	"context"
	"time"

	"edu-platform-backend/internal/domain/model"
)

type PaymentRepository interface {
	// Create inserts a new payment row. ErrAlreadyExists when the order
	// reference is already taken.
	Create(ctx context.Context, tx Tx, p *model.Payment) error
	FindByOrderReference(ctx context.Context, tx Tx, orderReference string) (*model.Payment, error)
	// UpdateStatusIfCreated transitions payment_status only when the current
	// status is CREATED. Returns false when the guard did not match, which is
	// how concurrent duplicate deliveries lose the race.
	UpdateStatusIfCreated(ctx context.Context, tx Tx, orderReference string, status model.PaymentStatus, paidAt *time.Time, failReason *string) (bool, error)
	// SetProviderPayload stores the latest provider callback/stage for audit.
	SetProviderPayload(ctx context.Context, tx Tx, orderReference string, payload map[string]interface{}) error
	// ListCreatedOlderThan returns CREATED payments initiated before cutoff.
	ListCreatedOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Payment, error)
}
