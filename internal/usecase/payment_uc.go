package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/adapter"
	"edu-platform-backend/internal/domain/ports/repository"
	"edu-platform-backend/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

const checkoutCurrency = "UAH"

// Provider transaction statuses this flow recognizes. Anything else is an
// intermediate state: the payload is persisted for audit, the status is not
// touched, and the provider still gets an acknowledgment.
const (
	txStatusApproved = "Approved"
	txStatusDeclined = "Declined"
)

type CheckoutResult struct {
	PaymentID      string
	OrderReference string
	ActionURL      string
	Fields         map[string]string
}

type PaymentUseCase interface {
	// Checkout creates a CREATED payment and returns the signed redirect form.
	// Every call creates a fresh payment row by design; the order reference
	// embeds a timestamp, so retries never collide.
	Checkout(ctx context.Context, userID string, packageID int64) (*CheckoutResult, error)
	// HandleWebhook applies one provider callback to the payment it names.
	// Idempotent: terminal payments are acknowledged without mutation.
	HandleWebhook(ctx context.Context, raw []byte) (*adapter.Ack, error)
	// Status returns the payment, scoped to its owner.
	Status(ctx context.Context, userID, orderReference string) (*model.Payment, error)
}

type paymentUC struct {
	payments    repository.PaymentRepository
	packages    repository.PackageRepository
	provider    adapter.PaymentProvider
	entitlement EntitlementUseCase
	notifier    NotificationUseCase
	tm          repository.TransactionManager
	loc         *time.Location
	log         *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	packages repository.PackageRepository,
	provider adapter.PaymentProvider,
	entitlement EntitlementUseCase,
	notifier NotificationUseCase,
	tm repository.TransactionManager,
	loc *time.Location,
	logger *zerolog.Logger,
) *paymentUC {
	if loc == nil {
		loc = time.UTC
	}
	compLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:    payments,
		packages:    packages,
		provider:    provider,
		entitlement: entitlement,
		notifier:    notifier,
		tm:          tm,
		loc:         loc,
		log:         &compLog,
	}
}

func (u *paymentUC) Checkout(ctx context.Context, userID string, packageID int64) (*CheckoutResult, error) {
	pkg, err := u.packages.FindByID(ctx, repository.NoTX, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.PriceUAH <= 0 || math.IsNaN(pkg.PriceUAH) || math.IsInf(pkg.PriceUAH, 0) {
		return nil, fmt.Errorf("%w: package %d has no valid price", domain.ErrInvalidArgument, packageID)
	}

	now := time.Now()
	orderReference := fmt.Sprintf("pkg_%d_u%s_%d", packageID, userID, now.UnixMilli())

	p := &model.Payment{
		ID:             uuid.NewString(),
		OrderReference: orderReference,
		Provider:       u.provider.Name(),
		Amount:         pkg.PriceUAH,
		Currency:       checkoutCurrency,
		Status:         model.PaymentStatusCreated,
		UserID:         &userID,
		PackageID:      &packageID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.payments.Create(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusCreated))

	// A misconfigured merchant must not leave a live-looking CREATED row
	// behind: expire it before surfacing the failure.
	if !u.provider.Configured() {
		reason := "merchant credentials not configured"
		if _, err := u.payments.UpdateStatusIfCreated(ctx, repository.NoTX, orderReference, model.PaymentStatusExpired, nil, &reason); err != nil {
			u.log.Error().Err(err).Str("order_reference", orderReference).Msg("failed to expire misconfigured payment")
		}
		metrics.IncPayment(string(model.PaymentStatusExpired))
		return nil, domain.ErrProviderNotConfigured
	}

	form, err := u.provider.BuildCheckout(orderReference, now, pkg.PriceUAH, checkoutCurrency, pkg.Title)
	if err != nil {
		return nil, err
	}

	audit := map[string]interface{}{
		"stage":  "checkout",
		"fields": form.Fields,
	}
	if err := u.payments.SetProviderPayload(ctx, repository.NoTX, orderReference, audit); err != nil {
		u.log.Error().Err(err).Str("order_reference", orderReference).Msg("failed to persist checkout audit payload")
	}

	u.log.Info().
		Str("order_reference", orderReference).
		Int64("package_id", packageID).
		Float64("amount", pkg.PriceUAH).
		Msg("checkout created")

	return &CheckoutResult{
		PaymentID:      p.ID,
		OrderReference: orderReference,
		ActionURL:      form.ActionURL,
		Fields:         form.Fields,
	}, nil
}

func (u *paymentUC) HandleWebhook(ctx context.Context, raw []byte) (*adapter.Ack, error) {
	now := time.Now()

	cb, err := u.provider.ParseCallback(raw)
	if err != nil {
		// Deliberately swallowed: acknowledging an unparseable body lets the
		// provider retry with a better-formed one instead of looping forever.
		u.log.Warn().Err(err).Msg("unparseable webhook body acknowledged")
		metrics.IncWebhook("parse_swallowed")
		ack := u.provider.BuildAck("", now)
		return &ack, nil
	}

	if cb.OrderReference == "" || cb.MerchantSignature == "" || cb.TransactionStatus == "" {
		metrics.IncWebhook("bad_payload")
		return nil, fmt.Errorf("%w: orderReference, merchantSignature and transactionStatus are required", domain.ErrInvalidArgument)
	}

	if err := u.provider.VerifyCallback(cb); err != nil {
		u.log.Warn().Err(err).
			Str("order_reference", cb.OrderReference).
			Str("received_signature", cb.MerchantSignature).
			Msg("webhook signature rejected")
		metrics.IncWebhook("bad_signature")
		metrics.IncSignatureFailure()
		return nil, err
	}

	p, err := u.payments.FindByOrderReference(ctx, repository.NoTX, cb.OrderReference)
	if err != nil {
		if err == domain.ErrNotFound {
			metrics.IncWebhook("not_found")
		}
		return nil, err
	}

	// Idempotency short-circuit. APPROVED is the load-bearing case (at most
	// one entitlement grant under redelivery); DECLINED and EXPIRED are
	// treated as terminal too, so replays for them never rewrite status.
	if p.Status.Terminal() {
		u.log.Info().
			Str("order_reference", cb.OrderReference).
			Str("status", string(p.Status)).
			Msg("webhook replay for terminal payment acknowledged")
		metrics.IncWebhook("replayed")
		ack := u.provider.BuildAck(cb.OrderReference, now)
		return &ack, nil
	}

	switch cb.TransactionStatus {
	case txStatusApproved:
		if err := u.applyApproval(ctx, p, cb, now); err != nil {
			return nil, err
		}
	case txStatusDeclined:
		if err := u.applyDecline(ctx, p, cb); err != nil {
			return nil, err
		}
	default:
		if err := u.payments.SetProviderPayload(ctx, repository.NoTX, cb.OrderReference, cb.Raw); err != nil {
			return nil, err
		}
		u.log.Info().
			Str("order_reference", cb.OrderReference).
			Str("transaction_status", cb.TransactionStatus).
			Msg("intermediate provider state recorded")
		metrics.IncWebhook("intermediate")
	}

	ack := u.provider.BuildAck(cb.OrderReference, now)
	return &ack, nil
}

// applyApproval flips the payment to APPROVED and extends the entitlement in
// one transaction, so an APPROVED payment without its grant cannot be
// persisted. The activation notification stays outside the transaction: a
// failed insert there must not roll back money state.
func (u *paymentUC) applyApproval(ctx context.Context, p *model.Payment, cb *adapter.Callback, now time.Time) error {
	paidAt := now.In(u.loc).Truncate(time.Second)
	granted := false
	transitioned := false

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.payments.UpdateStatusIfCreated(ctx, tx, p.OrderReference, model.PaymentStatusApproved, &paidAt, nil)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent delivery won the transition; nothing left to do.
			return nil
		}
		transitioned = true
		if err := u.payments.SetProviderPayload(ctx, tx, p.OrderReference, cb.Raw); err != nil {
			return err
		}

		if p.UserID == nil || p.PackageID == nil {
			// Recorded inconsistency: the payment approves, the user gets no
			// grant, and an operator reconciles manually.
			u.log.Error().
				Str("order_reference", p.OrderReference).
				Msg("approved payment has no user/package relation; entitlement skipped")
			granted = false
			return nil
		}
		if _, err := u.entitlement.Extend(ctx, tx, *p.UserID, *p.PackageID); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return err
	}

	// The approved counters track actual transitions; a delivery that lost
	// the conditional-update race is a redelivery for accounting purposes.
	if !transitioned {
		metrics.IncWebhook("replayed")
		return nil
	}
	metrics.IncPayment(string(model.PaymentStatusApproved))
	metrics.IncWebhook("approved")

	if granted {
		if _, err := u.notifier.Create(ctx, CreateNotificationInput{
			UserID:    *p.UserID,
			Code:      model.NotificationSubscriptionActivated,
			UniqueKey: fmt.Sprintf("%s:%s", model.NotificationSubscriptionActivated, p.OrderReference),
			Meta: map[string]interface{}{
				"orderReference": p.OrderReference,
				"packageId":      *p.PackageID,
			},
		}); err != nil {
			u.log.Error().Err(err).Str("order_reference", p.OrderReference).Msg("activation notification failed")
		}
	}
	return nil
}

func (u *paymentUC) applyDecline(ctx context.Context, p *model.Payment, cb *adapter.Callback) error {
	reason := cb.Reason
	if reason == "" {
		reason = txStatusDeclined
	}
	if _, err := u.payments.UpdateStatusIfCreated(ctx, repository.NoTX, p.OrderReference, model.PaymentStatusDeclined, nil, &reason); err != nil {
		return err
	}
	if err := u.payments.SetProviderPayload(ctx, repository.NoTX, p.OrderReference, cb.Raw); err != nil {
		return err
	}
	metrics.IncPayment(string(model.PaymentStatusDeclined))
	metrics.IncWebhook("declined")

	if p.UserID != nil {
		if _, err := u.notifier.Create(ctx, CreateNotificationInput{
			UserID:    *p.UserID,
			Code:      model.NotificationPaymentDeclined,
			UniqueKey: fmt.Sprintf("%s:%s", model.NotificationPaymentDeclined, p.OrderReference),
			Meta: map[string]interface{}{
				"orderReference": p.OrderReference,
				"reason":         reason,
			},
		}); err != nil {
			u.log.Error().Err(err).Str("order_reference", p.OrderReference).Msg("decline notification failed")
		}
	}
	return nil
}

func (u *paymentUC) Status(ctx context.Context, userID, orderReference string) (*model.Payment, error) {
	p, err := u.payments.FindByOrderReference(ctx, repository.NoTX, orderReference)
	if err != nil {
		return nil, err
	}
	if p.UserID == nil || *p.UserID != userID {
		// Not distinguishable from absence for the caller.
		return nil, domain.ErrNotFound
	}
	return p, nil
}
