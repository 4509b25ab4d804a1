// Package usecase implements the catalog queries and mutations on top of a
// store.Store. Callers are taken from the request context.
package usecase

//go:generate mockgen -destination=mocks/notifier.go -package=mocks librarygql/internal/usecase Notifier

import (
	"context"
	"errors"
	"fmt"

	"librarygql/internal/apperr"
	"librarygql/internal/auth"
	"librarygql/internal/entity"
	"librarygql/internal/metrics"
	"librarygql/internal/store"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RemovedSentinel is what the bulk delete mutations report, whatever they removed.
const RemovedSentinel = 666

const DefaultUserPassword = "secret"

// Notifier carries "book added" events to subscribers.
type Notifier interface {
	Publish(ctx context.Context, book entity.Book) error
	Subscribe(ctx context.Context) <-chan entity.Book
}

type Options struct {
	// DefaultPassword is stored for users created without a password.
	DefaultPassword string
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

type Library struct {
	store           store.Store
	auth            *auth.Service
	notifier        Notifier
	defaultPassword string
	logger          *zap.Logger
	metrics         *metrics.Metrics
}

func NewLibrary(s store.Store, authSvc *auth.Service, notifier Notifier, opts Options) *Library {
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = DefaultUserPassword
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Library{
		store:           s,
		auth:            authSvc,
		notifier:        notifier,
		defaultPassword: opts.DefaultPassword,
		logger:          opts.Logger.With(zap.String("component", "library")),
		metrics:         opts.Metrics,
	}
}

type AddBookInput struct {
	Title     string
	Author    string
	Published int
	Genres    []string
}

func (in AddBookInput) args() map[string]any {
	return map[string]any{
		"title":     in.Title,
		"author":    in.Author,
		"published": in.Published,
		"genres":    in.Genres,
	}
}

func (l *Library) BookCount(ctx context.Context) (int, error) {
	return l.store.Books().Count(ctx)
}

func (l *Library) AuthorCount(ctx context.Context) (int, error) {
	return l.store.Authors().Count(ctx)
}

// AllBooks lists books, optionally narrowed to one author's name and/or a
// genre. An unknown author name yields an empty list. Empty strings are
// treated as absent.
func (l *Library) AllBooks(ctx context.Context, author, genre *string) ([]entity.Book, error) {
	var filter store.BookFilter
	if author != nil && *author != "" {
		a, err := l.store.Authors().FindByName(ctx, *author)
		if errors.Is(err, store.ErrNotFound) {
			return []entity.Book{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find author: %w", err)
		}
		filter.AuthorID = a.ID
	}
	if genre != nil {
		filter.Genre = *genre
	}

	books, err := l.store.Books().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	if err := l.populateAuthors(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// populateAuthors attaches each book's author with one batched lookup.
func (l *Library) populateAuthors(ctx context.Context, books []entity.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := lo.Uniq(lo.Map(books, func(b entity.Book, _ int) string { return b.AuthorID }))
	authors, err := l.store.Authors().FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("find authors: %w", err)
	}
	byID := lo.KeyBy(authors, func(a entity.Author) string { return a.ID })
	for i := range books {
		if a, ok := byID[books[i].AuthorID]; ok {
			books[i].Author = &a
		}
	}
	return nil
}

func (l *Library) AllAuthors(ctx context.Context) ([]entity.Author, error) {
	return l.store.Authors().FindAll(ctx)
}

// Genres is the union of every book's genres in first-seen order.
func (l *Library) Genres(ctx context.Context) ([]string, error) {
	books, err := l.store.Books().Find(ctx, store.BookFilter{})
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	return lo.Uniq(lo.FlatMap(books, func(b entity.Book, _ int) []string { return b.Genres })), nil
}

func (l *Library) Me(ctx context.Context) *entity.User {
	return auth.UserFrom(ctx)
}

// AuthorBookCount counts the author's books from its back-reference list.
func AuthorBookCount(a entity.Author) int {
	return len(a.Books)
}

// AddBook stores a book, creating its author on first use, and notifies
// subscribers. The author back-reference is written only after the book
// exists; writes made by a failed call are removed again.
func (l *Library) AddBook(ctx context.Context, in AddBookInput) (entity.Book, error) {
	if auth.UserFrom(ctx) == nil {
		return entity.Book{}, apperr.NotAuthenticated()
	}

	var book entity.Book
	err := l.store.WithinTx(ctx, func(ctx context.Context) error {
		author, err := l.store.Authors().FindByName(ctx, in.Author)
		newAuthor := false
		switch {
		case errors.Is(err, store.ErrNotFound):
			author = entity.Author{Name: in.Author}
			if err := l.store.Authors().Create(ctx, &author); err != nil {
				return apperr.Invalid(err, in.args())
			}
			newAuthor = true
		case err != nil:
			return apperr.Invalid(err, in.args())
		}

		book = entity.Book{
			Title:     in.Title,
			Published: in.Published,
			AuthorID:  author.ID,
			Genres:    in.Genres,
		}
		if err := l.store.Books().Create(ctx, &book); err != nil {
			if newAuthor {
				l.undo(ctx, "author", author.ID, l.store.Authors().Delete)
			}
			return apperr.Invalid(err, in.args())
		}

		if err := l.store.Authors().AppendBook(ctx, author.ID, book.ID); err != nil {
			l.undo(ctx, "book", book.ID, l.store.Books().Delete)
			if newAuthor {
				l.undo(ctx, "author", author.ID, l.store.Authors().Delete)
			}
			return apperr.Invalid(err, in.args())
		}

		author.Books = append(author.Books, book.ID)
		book.Author = &author
		return nil
	})
	if err != nil {
		return entity.Book{}, err
	}

	l.metrics.RecordBookAdded()
	if err := l.notifier.Publish(ctx, book); err != nil {
		l.logger.Warn("publish bookAdded failed", zap.String("book_id", book.ID), zap.Error(err))
	}
	return book, nil
}

// undo deletes a write made earlier in a failed AddBook. Inside a store
// transaction the rollback already discards it.
func (l *Library) undo(ctx context.Context, kind, id string, del func(context.Context, string) error) {
	if store.Atomic(ctx) {
		return
	}
	if err := del(ctx, id); err != nil {
		l.logger.Error("rollback failed", zap.String("entity", kind), zap.String("id", id), zap.Error(err))
	}
}

// EditAuthor sets an author's birth year. An unknown name is not an error
// and yields nil.
func (l *Library) EditAuthor(ctx context.Context, name string, born int) (*entity.Author, error) {
	if auth.UserFrom(ctx) == nil {
		return nil, apperr.NotAuthenticated()
	}
	a, err := l.store.Authors().UpdateBorn(ctx, name, born)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Invalid(err, map[string]any{"name": name, "setBornTo": born})
	}
	return &a, nil
}

// CreateUser registers a user. The password, or the default one when
// omitted, is stored as a bcrypt hash.
func (l *Library) CreateUser(ctx context.Context, username, favoriteGenre string, password *string) (entity.User, error) {
	args := map[string]any{"username": username, "favoriteGenre": favoriteGenre}

	plain := l.defaultPassword
	if password != nil && *password != "" {
		plain = *password
	}
	hash, err := auth.HashPassword(plain)
	if err != nil {
		return entity.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := entity.User{Username: username, FavoriteGenre: favoriteGenre, PasswordHash: hash}
	if err := l.store.Users().Create(ctx, &u); err != nil {
		return entity.User{}, apperr.Invalid(err, args)
	}
	return u, nil
}

func (l *Library) Login(ctx context.Context, username, password string) (string, error) {
	return l.auth.Login(ctx, username, password)
}

// RemoveBooks deletes every book. Store failures are logged only.
func (l *Library) RemoveBooks(ctx context.Context) int {
	n, err := l.store.Books().DeleteAll(ctx)
	if err != nil {
		l.logger.Error("remove books failed", zap.Error(err))
		return RemovedSentinel
	}
	l.logger.Info("books removed", zap.Int64("count", n))
	return RemovedSentinel
}

// RemoveAuthors deletes every author. Store failures are logged only.
func (l *Library) RemoveAuthors(ctx context.Context) int {
	n, err := l.store.Authors().DeleteAll(ctx)
	if err != nil {
		l.logger.Error("remove authors failed", zap.Error(err))
		return RemovedSentinel
	}
	l.logger.Info("authors removed", zap.Int64("count", n))
	return RemovedSentinel
}

// BookAdded streams books added after the call until ctx ends.
func (l *Library) BookAdded(ctx context.Context) <-chan entity.Book {
	return l.notifier.Subscribe(ctx)
}
