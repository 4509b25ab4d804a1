package graph

import (
	"context"
	"errors"

	"librarygql/internal/apperr"
	"librarygql/internal/entity"
	"librarygql/internal/usecase"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/lo"
)

// Resolver is the root for Query, Mutation and Subscription fields.
type Resolver struct {
	lib *usecase.Library
}

// gqlError surfaces the typed error inside err so the executor can read its
// extensions.
func gqlError(err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var ae *apperr.AuthenticationError
	if errors.As(err, &ae) {
		return ae
	}
	return err
}

func count(n int, err error) (*int32, error) {
	if err != nil {
		return nil, gqlError(err)
	}
	v := int32(n)
	return &v, nil
}

func (r *Resolver) BookCount(ctx context.Context) (*int32, error) {
	return count(r.lib.BookCount(ctx))
}

func (r *Resolver) AuthorCount(ctx context.Context) (*int32, error) {
	return count(r.lib.AuthorCount(ctx))
}

type allBooksArgs struct {
	Author *string
	Genre  *string
}

func (r *Resolver) AllBooks(ctx context.Context, args allBooksArgs) (*[]*bookResolver, error) {
	books, err := r.lib.AllBooks(ctx, args.Author, args.Genre)
	if err != nil {
		return nil, gqlError(err)
	}
	out := lo.Map(books, func(b entity.Book, _ int) *bookResolver { return &bookResolver{b: b} })
	return &out, nil
}

func (r *Resolver) AllAuthors(ctx context.Context) (*[]*authorResolver, error) {
	authors, err := r.lib.AllAuthors(ctx)
	if err != nil {
		return nil, gqlError(err)
	}
	out := lo.Map(authors, func(a entity.Author, _ int) *authorResolver { return &authorResolver{a: a} })
	return &out, nil
}

func (r *Resolver) Me(ctx context.Context) *userResolver {
	u := r.lib.Me(ctx)
	if u == nil {
		return nil
	}
	return &userResolver{u: *u}
}

func (r *Resolver) Genres(ctx context.Context) (*[]*string, error) {
	genres, err := r.lib.Genres(ctx)
	if err != nil {
		return nil, gqlError(err)
	}
	out := lo.ToSlicePtr(genres)
	return &out, nil
}

type addBookArgs struct {
	Title     string
	Author    string
	Published int32
	Genres    []string
}

func (r *Resolver) AddBook(ctx context.Context, args addBookArgs) (*bookResolver, error) {
	b, err := r.lib.AddBook(ctx, usecase.AddBookInput{
		Title:     args.Title,
		Author:    args.Author,
		Published: int(args.Published),
		Genres:    args.Genres,
	})
	if err != nil {
		return nil, gqlError(err)
	}
	return &bookResolver{b: b}, nil
}

type editAuthorArgs struct {
	Name      string
	SetBornTo int32
}

func (r *Resolver) EditAuthor(ctx context.Context, args editAuthorArgs) (*authorResolver, error) {
	a, err := r.lib.EditAuthor(ctx, args.Name, int(args.SetBornTo))
	if err != nil {
		return nil, gqlError(err)
	}
	if a == nil {
		return nil, nil
	}
	return &authorResolver{a: *a}, nil
}

type createUserArgs struct {
	Username      string
	FavoriteGenre string
	Password      *string
}

func (r *Resolver) CreateUser(ctx context.Context, args createUserArgs) (*userResolver, error) {
	u, err := r.lib.CreateUser(ctx, args.Username, args.FavoriteGenre, args.Password)
	if err != nil {
		return nil, gqlError(err)
	}
	return &userResolver{u: u}, nil
}

type loginArgs struct {
	Username string
	Password string
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*tokenResolver, error) {
	token, err := r.lib.Login(ctx, args.Username, args.Password)
	if err != nil {
		return nil, gqlError(err)
	}
	return &tokenResolver{value: token}, nil
}

func (r *Resolver) RemoveBooks(ctx context.Context) *int32 {
	n := int32(r.lib.RemoveBooks(ctx))
	return &n
}

func (r *Resolver) RemoveAuthors(ctx context.Context) *int32 {
	n := int32(r.lib.RemoveAuthors(ctx))
	return &n
}

// BookAdded adapts the library's event stream to resolvers. The returned
// channel closes when ctx ends.
func (r *Resolver) BookAdded(ctx context.Context) <-chan *bookResolver {
	events := r.lib.BookAdded(ctx)
	out := make(chan *bookResolver)
	go func() {
		defer close(out)
		for {
			select {
			case b, ok := <-events:
				if !ok {
					return
				}
				select {
				case out <- &bookResolver{b: b}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

type bookResolver struct {
	b entity.Book
}

func (r *bookResolver) ID() graphql.ID   { return graphql.ID(r.b.ID) }
func (r *bookResolver) Title() string    { return r.b.Title }
func (r *bookResolver) Published() int32 { return int32(r.b.Published) }

func (r *bookResolver) Genres() []string {
	if r.b.Genres == nil {
		return []string{}
	}
	return r.b.Genres
}

func (r *bookResolver) Author() (*authorResolver, error) {
	if r.b.Author == nil {
		return nil, errors.New("author of book " + r.b.ID + " not found")
	}
	return &authorResolver{a: *r.b.Author}, nil
}

type authorResolver struct {
	a entity.Author
}

func (r *authorResolver) ID() graphql.ID { return graphql.ID(r.a.ID) }
func (r *authorResolver) Name() string   { return r.a.Name }

func (r *authorResolver) Born() *int32 {
	if r.a.Born == nil {
		return nil
	}
	v := int32(*r.a.Born)
	return &v
}

func (r *authorResolver) BookCount() *int32 {
	v := int32(usecase.AuthorBookCount(r.a))
	return &v
}

type userResolver struct {
	u entity.User
}

func (r *userResolver) ID() graphql.ID        { return graphql.ID(r.u.ID) }
func (r *userResolver) Username() string      { return r.u.Username }
func (r *userResolver) FavoriteGenre() string { return r.u.FavoriteGenre }

type tokenResolver struct {
	value string
}

func (r *tokenResolver) Value() string { return r.value }
