package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"librarygql/internal/entity"
)

// Memory is a process-local Store used for development and tests.
// Records keep insertion order. WithinTx is not atomic.
type Memory struct {
	mu      sync.RWMutex
	seq     int
	authors []entity.Author
	books   []entity.Book
	users   []entity.User
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Authors() AuthorRepository { return memAuthors{m} }
func (m *Memory) Books() BookRepository     { return memBooks{m} }
func (m *Memory) Users() UserRepository     { return memUsers{m} }

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) nextID() string {
	m.seq++
	return fmt.Sprintf("%024x", m.seq)
}

func cloneAuthor(a entity.Author) entity.Author {
	a.Books = slices.Clone(a.Books)
	if a.Born != nil {
		born := *a.Born
		a.Born = &born
	}
	return a
}

func cloneBook(b entity.Book) entity.Book {
	b.Genres = slices.Clone(b.Genres)
	b.Author = nil
	return b
}

type memAuthors struct{ m *Memory }

func (r memAuthors) Count(context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.m.authors), nil
}

func (r memAuthors) FindAll(context.Context) ([]entity.Author, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]entity.Author, 0, len(r.m.authors))
	for _, a := range r.m.authors {
		out = append(out, cloneAuthor(a))
	}
	return out, nil
}

func (r memAuthors) FindByName(_ context.Context, name string) (entity.Author, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, a := range r.m.authors {
		if a.Name == name {
			return cloneAuthor(a), nil
		}
	}
	return entity.Author{}, ErrNotFound
}

func (r memAuthors) FindByIDs(_ context.Context, ids []string) ([]entity.Author, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []entity.Author
	for _, a := range r.m.authors {
		if slices.Contains(ids, a.ID) {
			out = append(out, cloneAuthor(a))
		}
	}
	return out, nil
}

func (r memAuthors) Create(_ context.Context, a *entity.Author) error {
	if err := validateEntity("Author", a); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.authors {
		if existing.Name == a.Name {
			return &DuplicateError{Entity: "Author", Field: "name", Value: a.Name}
		}
	}
	a.ID = r.m.nextID()
	if a.Books == nil {
		a.Books = []string{}
	}
	r.m.authors = append(r.m.authors, cloneAuthor(*a))
	return nil
}

func (r memAuthors) AppendBook(_ context.Context, authorID, bookID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.authors {
		if r.m.authors[i].ID == authorID {
			r.m.authors[i].Books = append(r.m.authors[i].Books, bookID)
			return nil
		}
	}
	return ErrNotFound
}

func (r memAuthors) UpdateBorn(_ context.Context, name string, born int) (entity.Author, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.authors {
		if r.m.authors[i].Name == name {
			r.m.authors[i].Born = &born
			return cloneAuthor(r.m.authors[i]), nil
		}
	}
	return entity.Author{}, ErrNotFound
}

func (r memAuthors) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.authors = slices.DeleteFunc(r.m.authors, func(a entity.Author) bool { return a.ID == id })
	return nil
}

func (r memAuthors) DeleteAll(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := len(r.m.authors)
	r.m.authors = nil
	return int64(n), nil
}

type memBooks struct{ m *Memory }

func (r memBooks) Count(context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.m.books), nil
}

func (r memBooks) Find(_ context.Context, f BookFilter) ([]entity.Book, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []entity.Book{}
	for _, b := range r.m.books {
		if f.AuthorID != "" && b.AuthorID != f.AuthorID {
			continue
		}
		if f.Genre != "" && !slices.Contains(b.Genres, f.Genre) {
			continue
		}
		out = append(out, cloneBook(b))
	}
	return out, nil
}

func (r memBooks) Create(_ context.Context, b *entity.Book) error {
	if err := validateEntity("Book", b); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b.ID = r.m.nextID()
	if b.Genres == nil {
		b.Genres = []string{}
	}
	r.m.books = append(r.m.books, cloneBook(*b))
	return nil
}

func (r memBooks) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.books = slices.DeleteFunc(r.m.books, func(b entity.Book) bool { return b.ID == id })
	return nil
}

func (r memBooks) DeleteAll(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := len(r.m.books)
	r.m.books = nil
	return int64(n), nil
}

type memUsers struct{ m *Memory }

func (r memUsers) Create(_ context.Context, u *entity.User) error {
	if err := validateEntity("User", u); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Username == u.Username {
			return &DuplicateError{Entity: "User", Field: "username", Value: u.Username}
		}
	}
	u.ID = r.m.nextID()
	r.m.users = append(r.m.users, *u)
	return nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (entity.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return entity.User{}, ErrNotFound
}

func (r memUsers) FindByID(_ context.Context, id string) (entity.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return entity.User{}, ErrNotFound
}
