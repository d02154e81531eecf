package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// DiskStorage writes objects below dir. The API serves dir at publicPath.
type DiskStorage struct {
	dir        string
	publicPath string
}

func NewDiskStorage(dir, publicPath string) *DiskStorage {
	return &DiskStorage{dir: dir, publicPath: publicPath}
}

func (d *DiskStorage) Dir() string {
	return d.dir
}

func (d *DiskStorage) PublicPath() string {
	return d.publicPath
}

// Save writes to a temp file first so a reader never sees a partial image.
func (d *DiskStorage) Save(ctx context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(d.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("rename %s: %w", key, err)
	}

	return path.Join(d.publicPath, key), nil
}
