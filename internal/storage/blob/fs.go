package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FSStore maps keys to files under a root directory.
type FSStore struct {
	root string
}

var _ Store = (*FSStore)(nil)

// NewFS returns a filesystem store rooted at root, creating it if needed.
func NewFS(root string) (*FSStore, error) {
	if root == "" {
		root = "."
	}

	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("creating store root %s: %w", root, err)
	}

	return &FSStore{root: root}, nil
}

func (s *FSStore) Driver() string { return DriverFS }

func (s *FSStore) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		record(DriverFS, opGet, statusNotFound)

		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, key)
	}

	if err != nil {
		record(DriverFS, opGet, statusError)

		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	record(DriverFS, opGet, statusSuccess)

	return data, nil
}

// Put writes data to a temporary file in the target directory, syncs it and
// renames it over the key.
func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	if err := s.put(key, data); err != nil {
		record(DriverFS, opPut, statusError)

		return err
	}

	record(DriverFS, opPut, statusSuccess)

	return nil
}

func (s *FSStore) put(key string, data []byte) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", key, err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("writing %s: %w", key, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("syncing %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", key, err)
	}

	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("replacing %s: %w", key, err)
	}

	return nil
}

func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)

	switch {
	case err == nil:
		record(DriverFS, opExists, statusSuccess)

		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		record(DriverFS, opExists, statusSuccess)

		return false, nil
	default:
		record(DriverFS, opExists, statusError)

		return false, fmt.Errorf("stat %s: %w", key, err)
	}
}

// Ping checks that the root directory is still there.
func (s *FSStore) Ping(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("store root %s: %w", s.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: store root %s is not a directory", apperrors.ErrInvalidInput, s.root)
	}

	return nil
}
