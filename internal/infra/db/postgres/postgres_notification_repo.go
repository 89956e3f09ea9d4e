package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/repository"
)

var _ repository.NotificationRepository = (*notificationRepo)(nil)

type notificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepo{pool: pool}
}

func (r *notificationRepo) Insert(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, code, unique_key, title, notification_text, cta_label, cta_url, meta_data, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	// No existence pre-check. The UNIQUE constraint on unique_key is the
	// de-duplication mechanism; callers translate ErrAlreadyExists to a no-op.
	_, err := execSQL(ctx, r.pool, tx, q, n.ID, n.UserID, n.Code, n.UniqueKey, n.Title, n.Text, n.CtaLabel, n.CtaURL, n.Meta, n.CreatedAt)
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
