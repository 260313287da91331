// Package source opens the element source selected by configuration.
package source

import (
	"context"
	"fmt"

	"gtasync/internal/config"
	"gtasync/internal/infra/source/memory"
	"gtasync/internal/infra/source/postgres"
	"gtasync/internal/infra/source/s3"
	"gtasync/internal/infra/source/sqlite"
	"gtasync/internal/source/core"
)

// Open returns the Fetcher for cfg.Driver. An empty driver selects memory.
func Open(ctx context.Context, cfg config.Source) (core.Fetcher, error) {
	driver := core.Driver(cfg.Driver)
	if driver == "" {
		driver = core.DriverMemory
	}
	switch driver {
	case core.DriverMemory:
		return memory.New(), nil
	case core.DriverSQLite:
		return fetcher(sqlite.Open(ctx, cfg.SQLite.Path))
	case core.DriverPostgres:
		return fetcher(postgres.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Table))
	case core.DriverS3:
		return fetcher(s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		}))
	default:
		return nil, fmt.Errorf("unknown source driver %s", driver)
	}
}

// fetcher keeps a failed constructor from yielding a non-nil interface
// around a nil pointer.
func fetcher[F core.Fetcher](f F, err error) (core.Fetcher, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}
