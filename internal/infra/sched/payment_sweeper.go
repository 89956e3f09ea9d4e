package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/repository"
	"edu-platform-backend/internal/infra/metrics"
)

// PaymentSweeper force-expires CREATED payments the provider never called
// back for. WayForPay pushes callbacks rather than exposing a pull-verify
// API, so abandoned checkouts would otherwise sit in CREATED forever.
type PaymentSweeper struct {
	payments   repository.PaymentRepository
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewPaymentSweeper(payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	compLog := logger.With().Str("component", "PaymentSweeper").Logger()
	return &PaymentSweeper{
		payments:   payments,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &compLog,
	}
}

func (w *PaymentSweeper) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentSweeper) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.payments.ListCreatedOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("stale payment scan failed")
		return
	}

	swept := 0
	reason := "no provider callback received"
	for _, p := range stale {
		ok, err := w.payments.UpdateStatusIfCreated(ctx, repository.NoTX, p.OrderReference, model.PaymentStatusExpired, nil, &reason)
		if err != nil {
			w.log.Error().Err(err).Str("order_reference", p.OrderReference).Msg("failed to expire stale payment")
			continue
		}
		if ok {
			swept++
		}
	}
	if swept > 0 {
		metrics.AddPaymentsSwept(swept)
		w.log.Info().Int("count", swept).Msg("stale payments expired")
	}
}
