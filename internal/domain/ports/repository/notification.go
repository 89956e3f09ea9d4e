package repository

import (
	"context"

	"edu-platform-backend/internal/domain/model"
)

type NotificationRepository interface {
	// Insert persists the notification. There is no existence pre-check: the
	// database UNIQUE constraint on unique_key is the sole de-duplication
	// mechanism, surfaced as ErrAlreadyExists.
	Insert(ctx context.Context, tx Tx, n *model.Notification) error
}
