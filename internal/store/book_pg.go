package store

import (
	"context"

	"librarygql/internal/entity"

	sq "github.com/Masterminds/squirrel"
)

type BookPG struct {
	db *PG
}

func (r *BookPG) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	var n int
	err := r.db.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM books`).Scan(&n)
	return n, err
}

// Find uses the author_id btree and the genres GIN index.
func (r *BookPG) Find(ctx context.Context, f BookFilter) ([]entity.Book, error) {
	b := psql.Select("id::text", "title", "published", "author_id::text", "genres").From("books").OrderBy("seq")
	if f.AuthorID != "" {
		if !validUUID(f.AuthorID) {
			return []entity.Book{}, nil
		}
		b = b.Where(sq.Expr("author_id = ?::uuid", f.AuthorID))
	}
	if f.Genre != "" {
		b = b.Where(sq.Expr("genres @> ?::text[]", []string{f.Genre}))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []entity.Book{}
	for rows.Next() {
		var bk entity.Book
		if err := rows.Scan(&bk.ID, &bk.Title, &bk.Published, &bk.AuthorID, &bk.Genres); err != nil {
			return nil, err
		}
		if bk.Genres == nil {
			bk.Genres = []string{}
		}
		books = append(books, bk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *BookPG) Create(ctx context.Context, b *entity.Book) error {
	if err := validateEntity("Book", b); err != nil {
		return err
	}
	if !validUUID(b.AuthorID) {
		return &ValidationError{Entity: "Book", Fields: []FieldError{{Field: "author", Message: "author: invalid author id"}}}
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	const query = `
	INSERT INTO books (id, title, published, author_id, genres)
	VALUES (gen_random_uuid(), $1, $2, $3::uuid, $4)
	RETURNING id::text
	`
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return r.db.conn(ctx).QueryRow(ctx, query, b.Title, b.Published, b.AuthorID, b.Genres).Scan(&b.ID)
}

func (r *BookPG) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	_, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM books WHERE id = $1::uuid`, id)
	return err
}

func (r *BookPG) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM books`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
