// Package blob stores whole objects by key on the local filesystem, in an
// S3-compatible bucket or in memory.
//
// Put replaces an object in one step: readers observe either the previous or
// the new content, never a partial write.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
)

// Driver names.
const (
	DriverFS     = "fs"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// Operation labels.
const (
	opGet    = "get"
	opPut    = "put"
	opExists = "exists"

	statusSuccess  = "success"
	statusError    = "error"
	statusNotFound = "not_found"
)

// Store is an object store. Get returns errors.ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Driver() string
}

// sanitizeKey rejects keys that could escape the store root and normalizes
// separators.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: empty key", errInvalidKey)
	}

	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: absolute key %q", errInvalidKey, key)
	}

	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: key %q escapes the store root", errInvalidKey, key)
	}

	return clean, nil
}

func record(driver, op, status string) {
	observability.StoreOperations.WithLabelValues(driver, op, status).Inc()
}
