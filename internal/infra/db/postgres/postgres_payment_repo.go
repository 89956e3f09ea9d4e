package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_reference, provider, amount, currency, payment_status, paid_at, fail_reason, user_id, package_id, provider_payload, created_at, updated_at`

func (r *paymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_reference, provider, amount, currency, payment_status, paid_at, fail_reason, user_id, package_id, provider_payload, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.OrderReference, p.Provider, p.Amount, p.Currency, p.Status, p.PaidAt, p.FailReason, p.UserID, p.PackageID, p.ProviderPayload, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		switch {
		case err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext:
			return err
		case isUniqueViolation(err):
			return domain.ErrAlreadyExists
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *paymentRepo) FindByOrderReference(ctx context.Context, tx repository.Tx, orderReference string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_reference=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, orderReference)
	if err != nil {
		return nil, err
	}

	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.OrderReference, &p.Provider, &p.Amount, &p.Currency, &p.Status, &p.PaidAt, &p.FailReason, &p.UserID, &p.PackageID, &p.ProviderPayload, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

// UpdateStatusIfCreated atomically transitions payment_status only when the
// current status is CREATED. Under concurrent webhook redelivery, only one
// writer observes RowsAffected()==1.
func (r *paymentRepo) UpdateStatusIfCreated(
	ctx context.Context, tx repository.Tx, orderReference string, status model.PaymentStatus, paidAt *time.Time, failReason *string,
) (bool, error) {
	const q = `
    UPDATE payments
       SET payment_status = $2,
           paid_at = COALESCE($3, paid_at),
           fail_reason = COALESCE($4, fail_reason),
           updated_at = NOW()
     WHERE order_reference = $1
       AND payment_status = 'CREATED';`

	cmd, err := execSQL(ctx, r.pool, tx, q, orderReference, string(status), paidAt, failReason)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) SetProviderPayload(ctx context.Context, tx repository.Tx, orderReference string, payload map[string]interface{}) error {
	const q = `UPDATE payments SET provider_payload=$2, updated_at=NOW() WHERE order_reference=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, orderReference, payload)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListCreatedOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_status='CREATED' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p := new(model.Payment)
		if err := rows.Scan(&p.ID, &p.OrderReference, &p.Provider, &p.Amount, &p.Currency, &p.Status, &p.PaidAt, &p.FailReason, &p.UserID, &p.PackageID, &p.ProviderPayload, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
