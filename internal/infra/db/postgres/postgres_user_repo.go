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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `SELECT id, package_id, package_active_until FROM users WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	u := &model.User{}
	if err := row.Scan(&u.ID, &u.PackageID, &u.PackageActiveUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}

// UpdateEntitlement writes package and expiry in one statement so a granted
// package can never be observed without its active-until.
func (r *userRepo) UpdateEntitlement(ctx context.Context, tx repository.Tx, userID string, packageID int64, activeUntil time.Time) error {
	const q = `UPDATE users SET package_id=$2, package_active_until=$3 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, packageID, activeUntil)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) ListExpiringWithin(ctx context.Context, tx repository.Tx, d time.Duration) ([]*model.User, error) {
	const q = `
SELECT id, package_id, package_active_until
  FROM users
 WHERE package_active_until IS NOT NULL
   AND package_active_until > NOW()
   AND package_active_until <= NOW() + $1::interval;`
	return r.queryMany(ctx, tx, q, d.String())
}

func (r *userRepo) ListExpiredSince(ctx context.Context, tx repository.Tx, since time.Time) ([]*model.User, error) {
	const q = `
SELECT id, package_id, package_active_until
  FROM users
 WHERE package_active_until IS NOT NULL
   AND package_active_until <= NOW()
   AND package_active_until >= $1;`
	return r.queryMany(ctx, tx, q, since)
}

func (r *userRepo) queryMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.User, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u := new(model.User)
		if err := rows.Scan(&u.ID, &u.PackageID, &u.PackageActiveUntil); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, u)
	}
	return out, nil
}
