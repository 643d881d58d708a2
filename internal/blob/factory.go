package blob

import (
	"context"
	"fmt"
	"strings"

	"civic-watch/incident-reports-backend/internal/config"
)

// NewStore builds the storage backend selected by configuration. Local
// filesystem storage is the default.
func NewStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "local":
		return NewLocalStore(cfg.LocalRoot)
	case "s3":
		return NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
