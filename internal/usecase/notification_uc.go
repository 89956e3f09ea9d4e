package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/repository"
	"edu-platform-backend/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationOverride replaces template defaults per field when non-nil.
type NotificationOverride struct {
	Title    *string
	Text     *string
	CtaLabel *string
	CtaURL   *string
}

type CreateNotificationInput struct {
	UserID    string
	Code      model.NotificationCode
	UniqueKey string
	Meta      map[string]interface{}
	Override  *NotificationOverride
}

type NotificationUseCase interface {
	// Create persists a notification exactly once per unique key. A duplicate
	// key returns (nil, nil), never an error; any other failure propagates.
	Create(ctx context.Context, in CreateNotificationInput) (*model.Notification, error)
}

type notificationUC struct {
	notifications repository.NotificationRepository
	log           *zerolog.Logger
}

func NewNotificationUseCase(notifications repository.NotificationRepository, logger *zerolog.Logger) *notificationUC {
	compLog := logger.With().Str("component", "NotificationUC").Logger()
	return &notificationUC{notifications: notifications, log: &compLog}
}

func (n *notificationUC) Create(ctx context.Context, in CreateNotificationInput) (*model.Notification, error) {
	if in.UserID == "" || in.Code == "" || in.UniqueKey == "" {
		return nil, fmt.Errorf("%w: userID, code and uniqueKey are required", domain.ErrInvalidArgument)
	}
	tpl, ok := model.NotificationTemplates[in.Code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTemplate, in.Code)
	}

	notif := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Code:      in.Code,
		UniqueKey: in.UniqueKey,
		Title:     tpl.Title,
		Text:      tpl.Text,
		CtaLabel:  tpl.CtaLabel,
		CtaURL:    tpl.CtaURL,
		Meta:      in.Meta,
		CreatedAt: time.Now(),
	}
	if o := in.Override; o != nil {
		if o.Title != nil {
			notif.Title = *o.Title
		}
		if o.Text != nil {
			notif.Text = *o.Text
		}
		if o.CtaLabel != nil {
			notif.CtaLabel = *o.CtaLabel
		}
		if o.CtaURL != nil {
			notif.CtaURL = *o.CtaURL
		}
	}

	if err := n.notifications.Insert(ctx, repository.NoTX, notif); err != nil {
		if err == domain.ErrAlreadyExists {
			metrics.IncNotificationDeduplicated(string(in.Code))
			n.log.Debug().Str("unique_key", in.UniqueKey).Msg("duplicate notification suppressed")
			return nil, nil
		}
		return nil, err
	}

	metrics.IncNotificationCreated(string(in.Code))
	return notif, nil
}
