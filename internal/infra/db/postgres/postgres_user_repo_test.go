//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
)

func newTestNotification(userID, uniqueKey string) *model.Notification {
	return &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      model.NotificationSubscriptionActivated,
		UniqueKey: uniqueKey,
		Title:     "Subscription activated",
		Text:      "Your subscription is active.",
		CtaLabel:  "Start learning",
		CtaURL:    "/courses",
		CreatedAt: time.Now(),
	}
}

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewUserRepo(testPool)

	seedUser := func(t *testing.T, id string, activeUntil *time.Time) {
		t.Helper()
		if _, err := testPool.Exec(ctx, `INSERT INTO users (id, package_active_until) VALUES ($1, $2)`, id, activeUntil); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
	}

	t.Run("should find a user and report absence", func(t *testing.T) {
		cleanup(t)
		seedUser(t, "u1", nil)

		u, err := repo.FindByID(ctx, nil, "u1")
		if err != nil {
			t.Fatalf("FindByID error = %v", err)
		}
		if u.ID != "u1" || u.PackageID != nil || u.PackageActiveUntil != nil {
			t.Errorf("user = %+v", u)
		}

		if _, err := repo.FindByID(ctx, nil, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("missing user error = %v, want ErrNotFound", err)
		}
	})

	t.Run("should write package and expiry together", func(t *testing.T) {
		cleanup(t)
		seedUser(t, "u1", nil)
		if _, err := testPool.Exec(ctx, `INSERT INTO packages (id, title, price_uah) VALUES (1, 'Premium Annual', 1200)`); err != nil {
			t.Fatalf("failed to seed package: %v", err)
		}

		until := time.Now().AddDate(1, 0, 0).Truncate(time.Second)
		if err := repo.UpdateEntitlement(ctx, nil, "u1", 1, until); err != nil {
			t.Fatalf("UpdateEntitlement error = %v", err)
		}

		u, _ := repo.FindByID(ctx, nil, "u1")
		if u.PackageID == nil || *u.PackageID != 1 {
			t.Errorf("package = %v, want 1", u.PackageID)
		}
		if u.PackageActiveUntil == nil || !u.PackageActiveUntil.Equal(until) {
			t.Errorf("active until = %v, want %v", u.PackageActiveUntil, until)
		}

		if err := repo.UpdateEntitlement(ctx, nil, "ghost", 1, until); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("missing user error = %v, want ErrNotFound", err)
		}
	})

	t.Run("expiry scans respect their windows", func(t *testing.T) {
		cleanup(t)
		soon := time.Now().Add(48 * time.Hour)
		far := time.Now().AddDate(0, 6, 0)
		justExpired := time.Now().Add(-24 * time.Hour)
		longExpired := time.Now().AddDate(0, -2, 0)
		seedUser(t, "expiring", &soon)
		seedUser(t, "far-out", &far)
		seedUser(t, "just-expired", &justExpired)
		seedUser(t, "long-expired", &longExpired)
		seedUser(t, "no-sub", nil)

		expiring, err := repo.ListExpiringWithin(ctx, nil, 72*time.Hour)
		if err != nil {
			t.Fatalf("ListExpiringWithin error = %v", err)
		}
		if len(expiring) != 1 || expiring[0].ID != "expiring" {
			t.Errorf("expiring = %v, want only the 48h user", expiring)
		}

		expired, err := repo.ListExpiredSince(ctx, nil, time.Now().Add(-7*24*time.Hour))
		if err != nil {
			t.Fatalf("ListExpiredSince error = %v", err)
		}
		if len(expired) != 1 || expired[0].ID != "just-expired" {
			t.Errorf("expired = %v, want only the recent one", expired)
		}
	})
}

func TestNotificationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewNotificationRepo(testPool)

	t.Run("unique key is the only de-duplication mechanism", func(t *testing.T) {
		cleanup(t)
		if _, err := testPool.Exec(ctx, `INSERT INTO users (id) VALUES ('u1')`); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}

		first := newTestNotification("u1", "SUBSCRIPTION_ACTIVATED:pkg_1_u1_1")
		if err := repo.Insert(ctx, nil, first); err != nil {
			t.Fatalf("first insert error = %v", err)
		}

		dup := newTestNotification("u1", "SUBSCRIPTION_ACTIVATED:pkg_1_u1_1")
		if err := repo.Insert(ctx, nil, dup); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("duplicate insert error = %v, want ErrAlreadyExists", err)
		}

		other := newTestNotification("u1", "SUBSCRIPTION_ACTIVATED:pkg_1_u1_2")
		if err := repo.Insert(ctx, nil, other); err != nil {
			t.Errorf("distinct key insert error = %v", err)
		}
	})
}
