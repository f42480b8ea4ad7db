package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/anyproto/any-sync/app"
)

var (
	ErrNotFound = errors.New("not found")
)

func New() Store {
	return &store{}
}

const CName = "store"

// Store keeps image bytes under generated keys, independent of the database
// rows that reference them.
type Store interface {
	app.Component

	Put(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type backend interface {
	Put(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type store struct {
	backend backend
}

func (s *store) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configSource).GetStore()
	switch conf.Type {
	case TypeLocal, "":
		s.backend, err = newLocalBackend(conf.Local)
	case TypeS3:
		s.backend, err = newS3Backend(context.TODO(), conf.S3)
	default:
		err = fmt.Errorf("unknown store type: %q", conf.Type)
	}
	return
}

func (s *store) Name() string {
	return CName
}

func (s *store) Put(ctx context.Context, key string, reader io.Reader) error {
	return s.backend.Put(ctx, key, reader)
}

func (s *store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

func (s *store) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
