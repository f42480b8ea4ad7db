package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func newLocalBackend(conf Local) (*localBackend, error) {
	if conf.Dir == "" {
		return nil, fmt.Errorf("local store dir is empty")
	}
	if err := os.MkdirAll(conf.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	return &localBackend{dir: conf.Dir}, nil
}

// localBackend stores objects as files in a flat content directory. Keys are
// generated filenames; anything that looks like a path is rejected.
type localBackend struct {
	dir string
}

func (l *localBackend) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid store key: %q", key)
	}
	return filepath.Join(l.dir, key), nil
}

func (l *localBackend) Put(ctx context.Context, key string, reader io.Reader) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, reader); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (l *localBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (l *localBackend) Delete(ctx context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
