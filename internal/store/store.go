// Package store holds the repository contracts and their MongoDB, Postgres
// and in-memory backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"librarygql/internal/entity"

	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// BookFilter narrows Books().Find. Zero values match everything.
type BookFilter struct {
	AuthorID string
	Genre    string
}

type AuthorRepository interface {
	Count(ctx context.Context) (int, error)
	FindAll(ctx context.Context) ([]entity.Author, error)
	FindByName(ctx context.Context, name string) (entity.Author, error)
	FindByIDs(ctx context.Context, ids []string) ([]entity.Author, error)
	Create(ctx context.Context, a *entity.Author) error
	AppendBook(ctx context.Context, authorID, bookID string) error
	UpdateBorn(ctx context.Context, name string, born int) (entity.Author, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type BookRepository interface {
	Count(ctx context.Context) (int, error)
	Find(ctx context.Context, f BookFilter) ([]entity.Book, error)
	Create(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByUsername(ctx context.Context, username string) (entity.User, error)
	FindByID(ctx context.Context, id string) (entity.User, error)
}

// Store groups the repositories of one backend.
type Store interface {
	Authors() AuthorRepository
	Books() BookRepository
	Users() UserRepository

	// WithinTx runs fn atomically when the backend supports transactions.
	// Repositories must be called with the ctx handed to fn.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type atomicKey struct{}

// WithAtomic marks ctx as running inside a transaction that is rolled back
// when fn fails. Backends with real transactions wrap the ctx handed to fn.
func WithAtomic(ctx context.Context) context.Context {
	return context.WithValue(ctx, atomicKey{}, true)
}

// Atomic reports whether ctx was marked by WithAtomic.
func Atomic(ctx context.Context) bool {
	v, _ := ctx.Value(atomicKey{}).(bool)
	return v
}

type Options struct {
	URI               string
	Database          string
	Timeout           time.Duration
	MongoTransactions bool
	Logger            *zap.Logger
}

// Open picks a backend from the URI scheme: mongodb, mongodb+srv, postgres,
// postgresql or memory.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	scheme, _, ok := strings.Cut(opts.URI, "://")
	if !ok {
		return nil, fmt.Errorf("store: invalid database uri %q", RedactURI(opts.URI))
	}
	switch scheme {
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, opts)
	case "postgres", "postgresql":
		return OpenPG(ctx, opts)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unsupported scheme %q", scheme)
	}
}

// RedactURI hides credentials so the URI can be logged.
func RedactURI(uri string) string {
	const marker = "://"
	start := strings.Index(uri, marker)
	if start < 0 {
		return uri
	}
	start += len(marker)
	end := strings.Index(uri[start:], "@")
	if end < 0 {
		return uri
	}
	return uri[:start] + "***" + uri[start+end:]
}
