package blob

import (
	"context"
	"fmt"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
	"github.com/lueurxax/faculty-research-sync/internal/platform/config"
)

// Open returns the blob store selected by STORE_DRIVER. The postgres table
// driver still keeps the ranking lookup and goal index in the filesystem
// store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverFS, config.StoreDriverPostgres:
		return NewFS(cfg.StoreRoot)
	case config.StoreDriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			Prefix:    cfg.S3Prefix,
		})
	case config.StoreDriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: blob store %q", apperrors.ErrUnsupportedDriver, cfg.StoreDriver)
	}
}
