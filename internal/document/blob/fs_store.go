package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	documentdomain "github.com/atelierlab/devisio/internal/document/domain"
)

// FSStore keeps blobs as flat files under a root directory. Keys are ULIDs,
// so two leading characters make a cheap fan-out prefix.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root}, nil
}

var _ documentdomain.BlobStore = (*FSStore)(nil)

func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return written, nil
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(s.path(key))
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FSStore) path(key string) string {
	prefix := "00"
	if len(key) >= 2 {
		prefix = strings.ToLower(key[:2])
	}
	return filepath.Join(s.root, prefix, key)
}
