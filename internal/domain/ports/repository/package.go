package repository

import (
	"context"

	"edu-platform-backend/internal/domain/model"
)

type PackageRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Package, error)
}
