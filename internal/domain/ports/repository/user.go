package repository

import (
	"context"
	"time"

	"edu-platform-backend/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// UpdateEntitlement sets package and package_active_until in one statement.
	UpdateEntitlement(ctx context.Context, tx Tx, userID string, packageID int64, activeUntil time.Time) error
	// ListExpiringWithin returns users whose entitlement ends within d from now.
	ListExpiringWithin(ctx context.Context, tx Tx, d time.Duration) ([]*model.User, error)
	// ListExpiredSince returns users whose entitlement ended between since and now.
	ListExpiredSince(ctx context.Context, tx Tx, since time.Time) ([]*model.User, error)
}
