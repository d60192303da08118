// Package storage persists contact form submissions.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/navarrastar/portfolio/pkg/config"
	"github.com/navarrastar/portfolio/pkg/models"
)

// Store saves and lists contacts.
type Store interface {
	// CreateContact assigns an ID and creation time to in and saves it.
	CreateContact(ctx context.Context, in models.ContactInput) (models.Contact, error)
	// ListContacts returns every stored contact, newest first.
	ListContacts(ctx context.Context) ([]models.Contact, error)
	Close() error
}

type options struct {
	clock func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*options)

// WithClock sets the time source for createdAt.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig, opts ...Option) (Store, error) {
	switch cfg.Backend {
	case config.StorageJSON, "":
		return NewJSONStore(cfg.Path, opts...)
	case config.StorageSQLite:
		return NewSQLiteStore(ctx, cfg.Path, opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
