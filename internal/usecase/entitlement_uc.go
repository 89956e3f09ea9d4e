package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"edu-platform-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

type EntitlementUseCase interface {
	// Extend grants the user one more subscription year on packageID and
	// returns the new expiry. The baseline is the current expiry when it is
	// still in the future, otherwise now, so unexpired time is never lost.
	Extend(ctx context.Context, tx repository.Tx, userID string, packageID int64) (time.Time, error)
}

type entitlementUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewEntitlementUseCase(users repository.UserRepository, logger *zerolog.Logger) *entitlementUC {
	compLog := logger.With().Str("component", "EntitlementUC").Logger()
	return &entitlementUC{users: users, log: &compLog}
}

func (u *entitlementUC) Extend(ctx context.Context, tx repository.Tx, userID string, packageID int64) (time.Time, error) {
	user, err := u.users.FindByID(ctx, tx, userID)
	if err != nil {
		return time.Time{}, err
	}

	// Calendar-aware year increment, not a fixed day count, so leap years
	// behave per time.AddDate semantics.
	newExpiry := user.EntitlementBaseline(time.Now()).AddDate(1, 0, 0)

	if err := u.users.UpdateEntitlement(ctx, tx, userID, packageID, newExpiry); err != nil {
		return time.Time{}, err
	}

	u.log.Info().
		Str("user_id", userID).
		Int64("package_id", packageID).
		Time("active_until", newExpiry).
		Msg("entitlement extended")
	return newExpiry, nil
}
