//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- in-memory payment repo ---

type memPaymentRepo struct {
	mu    sync.Mutex
	byRef map[string]*model.Payment

	CreateFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	UpdateErr  error
	// BeforeUpdateStatus runs ahead of the conditional update, letting tests
	// interleave a competing writer.
	BeforeUpdateStatus func()
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{byRef: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRef[p.OrderReference]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *p
	m.byRef[p.OrderReference] = &cp
	return nil
}

func (m *memPaymentRepo) FindByOrderReference(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) UpdateStatusIfCreated(ctx context.Context, tx repository.Tx, ref string, status model.PaymentStatus, paidAt *time.Time, failReason *string) (bool, error) {
	if m.BeforeUpdateStatus != nil {
		m.BeforeUpdateStatus()
	}
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[ref]
	if !ok || p.Status != model.PaymentStatusCreated {
		return false, nil
	}
	p.Status = status
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	if failReason != nil {
		p.FailReason = failReason
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) SetProviderPayload(ctx context.Context, tx repository.Tx, ref string, payload map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[ref]
	if !ok {
		return domain.ErrOperationFailed
	}
	p.ProviderPayload = payload
	return nil
}

func (m *memPaymentRepo) ListCreatedOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.byRef {
		if p.Status == model.PaymentStatusCreated && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memPaymentRepo) snapshot() map[string]*model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := make(map[string]*model.Payment, len(m.byRef))
	for k, v := range m.byRef {
		cp := *v
		s[k] = &cp
	}
	return s
}

func (m *memPaymentRepo) restore(s map[string]*model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byRef = s
}

func (m *memPaymentRepo) get(ref string) *model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[ref]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// --- in-memory user repo ---

type memUserRepo struct {
	mu    sync.Mutex
	store map[string]*model.User

	UpdateEntitlementFunc func(ctx context.Context, tx repository.Tx, userID string, packageID int64, activeUntil time.Time) error
	updateCalls           int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) UpdateEntitlement(ctx context.Context, tx repository.Tx, userID string, packageID int64, activeUntil time.Time) error {
	if m.UpdateEntitlementFunc != nil {
		if err := m.UpdateEntitlementFunc(ctx, tx, userID, packageID, activeUntil); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	m.updateCalls++
	u.PackageID = &packageID
	until := activeUntil
	u.PackageActiveUntil = &until
	return nil
}

func (m *memUserRepo) ListExpiringWithin(ctx context.Context, tx repository.Tx, d time.Duration) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	cut := now.Add(d)
	var out []*model.User
	for _, u := range m.store {
		if u.PackageActiveUntil != nil && u.PackageActiveUntil.After(now) && !u.PackageActiveUntil.After(cut) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUserRepo) snapshot() map[string]*model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := make(map[string]*model.User, len(m.store))
	for k, v := range m.store {
		cp := *v
		s[k] = &cp
	}
	return s
}

func (m *memUserRepo) restore(s map[string]*model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}

func (m *memUserRepo) ListExpiredSince(ctx context.Context, tx repository.Tx, since time.Time) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var out []*model.User
	for _, u := range m.store {
		if u.PackageActiveUntil != nil && !u.PackageActiveUntil.After(now) && !u.PackageActiveUntil.Before(since) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- in-memory package repo ---

type memPackageRepo struct {
	mu    sync.Mutex
	store map[int64]*model.Package
}

func newMemPackageRepo() *memPackageRepo {
	return &memPackageRepo{store: make(map[int64]*model.Package)}
}

func (m *memPackageRepo) put(p *model.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
}

func (m *memPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// --- in-memory notification repo ---

type memNotificationRepo struct {
	mu    sync.Mutex
	byKey map[string]*model.Notification

	InsertErr error
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{byKey: make(map[string]*model.Notification)}
}

func (m *memNotificationRepo) Insert(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[n.UniqueKey]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *n
	m.byKey[n.UniqueKey] = &cp
	return nil
}

func (m *memNotificationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}

func (m *memNotificationRepo) get(key string) *model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byKey[key]
	if !ok {
		return nil
	}
	cp := *n
	return &cp
}

// --- tx manager ---

// txRollbackManager mimics transaction semantics over the in-memory repos:
// the callback works on them directly, and a callback error restores the
// state captured at begin, like a real rollback would.
type txRollbackManager struct {
	payments *memPaymentRepo
	users    *memUserRepo
}

func (m *txRollbackManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	paySnap := m.payments.snapshot()
	userSnap := m.users.snapshot()
	if err := fn(ctx, nil); err != nil {
		m.payments.restore(paySnap)
		m.users.restore(userSnap)
		return err
	}
	return nil
}
