package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/repository"
	"edu-platform-backend/internal/usecase"
)

// ExpiryWorker periodically scans user entitlements and emits "expiring soon"
// and "expired" notifications. De-duplication rides entirely on the
// notification unique key (code + user + expiry timestamp), so overlapping
// scans and restarts are harmless.
type ExpiryWorker struct {
	interval   time.Duration
	warnWithin time.Duration
	users      repository.UserRepository
	notifUC    usecase.NotificationUseCase
	log        *zerolog.Logger
}

// expiredLookback bounds how far back the expired scan reaches; older
// expiries were either already notified or predate this worker.
const expiredLookback = 7 * 24 * time.Hour

func NewExpiryWorker(interval, warnWithin time.Duration, users repository.UserRepository, notifUC usecase.NotificationUseCase, logger *zerolog.Logger) *ExpiryWorker {
	compLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:   interval,
		warnWithin: warnWithin,
		users:      users,
		notifUC:    notifUC,
		log:        &compLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	// Run once on startup, then on every tick
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *ExpiryWorker) runCheck(ctx context.Context) {
	sent := 0
	sent += w.notifyExpiring(ctx)
	sent += w.notifyExpired(ctx)
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("expiry notifications created")
	}
}

func (w *ExpiryWorker) notifyExpiring(ctx context.Context) int {
	users, err := w.users.ListExpiringWithin(ctx, repository.NoTX, w.warnWithin)
	if err != nil {
		w.log.Error().Err(err).Msg("expiring scan failed")
		return 0
	}
	return w.emit(ctx, users, model.NotificationSubscriptionExpiring3D)
}

func (w *ExpiryWorker) notifyExpired(ctx context.Context) int {
	users, err := w.users.ListExpiredSince(ctx, repository.NoTX, time.Now().Add(-expiredLookback))
	if err != nil {
		w.log.Error().Err(err).Msg("expired scan failed")
		return 0
	}
	return w.emit(ctx, users, model.NotificationSubscriptionExpired)
}

func (w *ExpiryWorker) emit(ctx context.Context, users []*model.User, code model.NotificationCode) int {
	sent := 0
	for _, u := range users {
		if u.PackageActiveUntil == nil {
			continue
		}
		n, err := w.notifUC.Create(ctx, usecase.CreateNotificationInput{
			UserID: u.ID,
			Code:   code,
			// The expiry timestamp makes the key recur legitimately after
			// each renewal and never within one subscription period.
			UniqueKey: fmt.Sprintf("%s:%s:%d", code, u.ID, u.PackageActiveUntil.Unix()),
			Meta: map[string]interface{}{
				"activeUntil": u.PackageActiveUntil.Format(time.RFC3339),
			},
		})
		if err != nil {
			w.log.Error().Err(err).Str("user_id", u.ID).Msg("expiry notification failed")
			continue
		}
		if n != nil {
			sent++
		}
	}
	return sent
}
