package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/repository"
	"edu-platform-backend/internal/infra/metrics"
	red "edu-platform-backend/internal/infra/redis"
)

var _ repository.PackageRepository = (*packageRepoCacheDecorator)(nil)

// packageRepoCacheDecorator is a read-through cache for packages. Packages
// change rarely and are read on every checkout, so a short TTL is enough.
type packageRepoCacheDecorator struct {
	inner repository.PackageRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPackageRepoCacheDecorator(inner repository.PackageRepository, cache red.RedisClient) repository.PackageRepository {
	return &packageRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *packageRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Package, error) {
	key := fmt.Sprintf("package:id:%d", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("package", "hit")
		var pkg model.Package
		if json.Unmarshal([]byte(val), &pkg) == nil {
			return &pkg, nil
		}
	}

	metrics.IncCacheRequest("package", "miss")
	pkg, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		bytes, _ := json.Marshal(pkg)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return pkg, nil
}
