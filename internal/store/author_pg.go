package store

import (
	"context"

	"librarygql/internal/entity"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

var authorColumns = []string{"id::text", "name", "born", "book_ids::text[]"}

type AuthorPG struct {
	db *PG
}

func scanAuthor(row pgx.Row) (entity.Author, error) {
	var a entity.Author
	if err := row.Scan(&a.ID, &a.Name, &a.Born, &a.Books); err != nil {
		return entity.Author{}, err
	}
	if a.Books == nil {
		a.Books = []string{}
	}
	return a, nil
}

func (r *AuthorPG) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	var n int
	err := r.db.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM authors`).Scan(&n)
	return n, err
}

func (r *AuthorPG) FindAll(ctx context.Context) ([]entity.Author, error) {
	return r.list(ctx, psql.Select(authorColumns...).From("authors").OrderBy("seq"))
}

func (r *AuthorPG) FindByIDs(ctx context.Context, ids []string) ([]entity.Author, error) {
	ids = lo.Filter(ids, func(id string, _ int) bool { return validUUID(id) })
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, psql.Select(authorColumns...).From("authors").
		Where(sq.Expr("id = ANY(?::text[]::uuid[])", ids)).OrderBy("seq"))
}

func (r *AuthorPG) list(ctx context.Context, b sq.SelectBuilder) ([]entity.Author, error) {
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

	authors := []entity.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return authors, nil
}

func (r *AuthorPG) FindByName(ctx context.Context, name string) (entity.Author, error) {
	query, args, err := psql.Select(authorColumns...).From("authors").Where(sq.Eq{"name": name}).Limit(1).ToSql()
	if err != nil {
		return entity.Author{}, err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	a, err := scanAuthor(r.db.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		return entity.Author{}, pgNotFound(err)
	}
	return a, nil
}

func (r *AuthorPG) Create(ctx context.Context, a *entity.Author) error {
	if err := validateEntity("Author", a); err != nil {
		return err
	}
	const query = `
	INSERT INTO authors (id, name, born)
	VALUES (gen_random_uuid(), $1, $2)
	RETURNING id::text
	`
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	if err := r.db.conn(ctx).QueryRow(ctx, query, a.Name, a.Born).Scan(&a.ID); err != nil {
		if isUniqueViolation(err) {
			return &DuplicateError{Entity: "Author", Field: "name", Value: a.Name}
		}
		return err
	}
	a.Books = []string{}
	return nil
}

func (r *AuthorPG) AppendBook(ctx context.Context, authorID, bookID string) error {
	if !validUUID(authorID) || !validUUID(bookID) {
		return ErrNotFound
	}
	const query = `UPDATE authors SET book_ids = array_append(book_ids, $2::uuid) WHERE id = $1::uuid`
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.conn(ctx).Exec(ctx, query, authorID, bookID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AuthorPG) UpdateBorn(ctx context.Context, name string, born int) (entity.Author, error) {
	query, args, err := psql.Update("authors").Set("born", born).Where(sq.Eq{"name": name}).
		Suffix("RETURNING id::text, name, born, book_ids::text[]").ToSql()
	if err != nil {
		return entity.Author{}, err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	a, err := scanAuthor(r.db.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		return entity.Author{}, pgNotFound(err)
	}
	return a, nil
}

func (r *AuthorPG) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	_, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM authors WHERE id = $1::uuid`, id)
	return err
}

func (r *AuthorPG) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM authors`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
