package store

import (
	"context"
	"errors"
	"testing"

	"librarygql/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite checks the repository contract against a fresh, empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("author create and find", func(t *testing.T) {
		s := newStore(t)
		a := &entity.Author{Name: "Robert Martin"}
		require.NoError(t, s.Authors().Create(ctx, a))
		assert.NotEmpty(t, a.ID)
		assert.Empty(t, a.Books)

		got, err := s.Authors().FindByName(ctx, "Robert Martin")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Nil(t, got.Born)

		_, err = s.Authors().FindByName(ctx, "robert martin")
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := s.Authors().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("author duplicate name", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Authors().Create(ctx, &entity.Author{Name: "Martin Fowler"}))

		err := s.Authors().Create(ctx, &entity.Author{Name: "Martin Fowler"})
		assert.ErrorIs(t, err, ErrDuplicate)
		var dup *DuplicateError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "name", dup.Field)
	})

	t.Run("author validation", func(t *testing.T) {
		s := newStore(t)
		err := s.Authors().Create(ctx, &entity.Author{Name: ""})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "name", ve.Fields[0].Field)

		n, err := s.Authors().Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("update born", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Authors().Create(ctx, &entity.Author{Name: "Joshua Kerievsky"}))

		got, err := s.Authors().UpdateBorn(ctx, "Joshua Kerievsky", 1958)
		require.NoError(t, err)
		require.NotNil(t, got.Born)
		assert.Equal(t, 1958, *got.Born)

		_, err = s.Authors().UpdateBorn(ctx, "Nobody Known", 1900)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("books filter by author and genre", func(t *testing.T) {
		s := newStore(t)
		ann := &entity.Author{Name: "Ann Leckie"}
		bob := &entity.Author{Name: "Bob Shaw"}
		require.NoError(t, s.Authors().Create(ctx, ann))
		require.NoError(t, s.Authors().Create(ctx, bob))

		b1 := &entity.Book{Title: "Ancillary Justice", Published: 2013, AuthorID: ann.ID, Genres: []string{"scifi", "space"}}
		b2 := &entity.Book{Title: "Provenance", Published: 2017, AuthorID: ann.ID, Genres: []string{"mystery"}}
		b3 := &entity.Book{Title: "Orbitsville", Published: 1975, AuthorID: bob.ID, Genres: []string{"scifi"}}
		for _, b := range []*entity.Book{b1, b2, b3} {
			require.NoError(t, s.Books().Create(ctx, b))
			require.NoError(t, s.Authors().AppendBook(ctx, b.AuthorID, b.ID))
		}

		all, err := s.Books().Find(ctx, BookFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID, b2.ID, b3.ID}, bookIDs(all))

		byAuthor, err := s.Books().Find(ctx, BookFilter{AuthorID: ann.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID, b2.ID}, bookIDs(byAuthor))

		byGenre, err := s.Books().Find(ctx, BookFilter{Genre: "scifi"})
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID, b3.ID}, bookIDs(byGenre))

		both, err := s.Books().Find(ctx, BookFilter{AuthorID: ann.ID, Genre: "scifi"})
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID}, bookIDs(both))

		got, err := s.Authors().FindByName(ctx, "Ann Leckie")
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID, b2.ID}, got.Books)

		authors, err := s.Authors().FindByIDs(ctx, []string{bob.ID, "not-an-id"})
		require.NoError(t, err)
		require.Len(t, authors, 1)
		assert.Equal(t, "Bob Shaw", authors[0].Name)
	})

	t.Run("book validation", func(t *testing.T) {
		s := newStore(t)
		a := &entity.Author{Name: "Some Author"}
		require.NoError(t, s.Authors().Create(ctx, a))

		err := s.Books().Create(ctx, &entity.Book{Title: "", Published: 2000, AuthorID: a.ID})
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))

		err = s.Books().Create(ctx, &entity.Book{Title: "No Year", AuthorID: a.ID})
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		a := &entity.Author{Name: "Kent Beck"}
		require.NoError(t, s.Authors().Create(ctx, a))
		b := &entity.Book{Title: "Extreme Programming", Published: 1999, AuthorID: a.ID, Genres: []string{}}
		require.NoError(t, s.Books().Create(ctx, b))

		require.NoError(t, s.Books().Delete(ctx, b.ID))
		require.NoError(t, s.Authors().Delete(ctx, a.ID))

		n, err := s.Books().Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, s.Authors().Create(ctx, &entity.Author{Name: "Kent Beck"}))
		removed, err := s.Authors().DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		removed, err = s.Books().DeleteAll(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		u := &entity.User{Username: "alice", FavoriteGenre: "scifi", PasswordHash: "hash"}
		require.NoError(t, s.Users().Create(ctx, u))
		assert.NotEmpty(t, u.ID)

		byName, err := s.Users().FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byName.ID)
		assert.Equal(t, "hash", byName.PasswordHash)

		byID, err := s.Users().FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)

		_, err = s.Users().FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Users().FindByID(ctx, "garbage")
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.Users().Create(ctx, &entity.User{Username: "alice", FavoriteGenre: "drama", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrDuplicate)

		err = s.Users().Create(ctx, &entity.User{Username: "al", FavoriteGenre: "drama", PasswordHash: "x"})
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("within tx", func(t *testing.T) {
		s := newStore(t)
		err := s.WithinTx(ctx, func(ctx context.Context) error {
			return s.Authors().Create(ctx, &entity.Author{Name: "Inside Tx"})
		})
		require.NoError(t, err)

		_, err = s.Authors().FindByName(ctx, "Inside Tx")
		assert.NoError(t, err)
	})
}

func bookIDs(books []entity.Book) []string {
	ids := make([]string, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	return ids
}
