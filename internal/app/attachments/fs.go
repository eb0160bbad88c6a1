package attachments

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/talenthive/recruiting_layer/internal/errors"
)

// FS stores blobs on the local filesystem under a root directory and serves
// them under a public base URL.
type FS struct {
	root    string
	baseURL string
}

var _ Store = (*FS)(nil)

func NewFS(root, baseURL string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.StorageFailure("create attachment root", err)
	}
	return &FS{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (f *FS) Put(_ context.Context, key string, data io.Reader) (string, error) {
	clean := path.Clean("/" + key)
	dst := filepath.Join(f.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.StorageFailure("create attachment dir", err)
	}

	file, err := os.Create(dst)
	if err != nil {
		return "", errors.StorageFailure("create attachment", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(dst)
		return "", errors.StorageFailure("write attachment", err)
	}
	return f.baseURL + clean, nil
}

func (f *FS) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, f.baseURL+"/") {
		return errors.Validationf("url %s is not served by this store", url)
	}
	rel := path.Clean("/" + strings.TrimPrefix(url, f.baseURL+"/"))
	err := os.Remove(filepath.Join(f.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return errors.StorageFailure("remove attachment", err)
	}
	return nil
}
