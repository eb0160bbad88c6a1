// Package attachments manages the blobs behind application documents. The
// engine treats blob deletion as best effort: a missing blob deletes
// successfully, and failed deletions are retried asynchronously by the
// Sweeper rather than failing the calling operation.
package attachments

import (
	"context"
	stderrors "errors"
	"io"
	"sync"

	"github.com/talenthive/recruiting_layer/internal/errors"
)

// ErrNotFound reports that the blob was already absent. Cleanup callers
// treat it as success; only I/O failures are retried.
var ErrNotFound = stderrors.New("attachment not found")

// Store persists document blobs addressed by URL.
type Store interface {
	Put(ctx context.Context, key string, data io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// Deleted reports whether a Delete outcome means the blob is gone.
func Deleted(err error) bool {
	return err == nil || stderrors.Is(err, ErrNotFound)
}

// Memory is an in-process Store for tests and local runs.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FailURLs forces Delete to fail for the listed URLs, for exercising
	// the sweeper retry path in tests.
	FailURLs map[string]bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte), FailURLs: make(map[string]bool)}
}

func (m *Memory) Put(_ context.Context, key string, data io.Reader) (string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", errors.StorageFailure("read blob", err)
	}
	url := "mem://" + key
	m.mu.Lock()
	m.blobs[url] = raw
	m.mu.Unlock()
	return url, nil
}

func (m *Memory) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailURLs[url] {
		return errors.StorageFailure("blob backend unavailable", nil)
	}
	if _, ok := m.blobs[url]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, url)
	return nil
}

// Has reports whether a blob is stored under the URL.
func (m *Memory) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[url]
	return ok
}
