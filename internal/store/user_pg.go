package store

import (
	"context"

	"librarygql/internal/entity"
)

type UserPG struct {
	db *PG
}

func (r *UserPG) Create(ctx context.Context, user *entity.User) error {
	if err := validateEntity("User", user); err != nil {
		return err
	}
	const query = `
	INSERT INTO users (id, username, favorite_genre, password_hash)
	VALUES (gen_random_uuid(), $1, $2, $3)
	RETURNING id::text
	`
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	err := r.db.conn(ctx).QueryRow(ctx, query, user.Username, user.FavoriteGenre, user.PasswordHash).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateError{Entity: "User", Field: "username", Value: user.Username}
		}
		return err
	}
	return nil
}

func (r *UserPG) FindByUsername(ctx context.Context, username string) (entity.User, error) {
	const query = `
	SELECT id::text, username, favorite_genre, password_hash
	FROM users
	WHERE username = $1
	LIMIT 1
	`
	return r.findOne(ctx, query, username)
}

func (r *UserPG) FindByID(ctx context.Context, id string) (entity.User, error) {
	if !validUUID(id) {
		return entity.User{}, ErrNotFound
	}
	const query = `
	SELECT id::text, username, favorite_genre, password_hash
	FROM users WHERE id = $1::uuid LIMIT 1
	`
	return r.findOne(ctx, query, id)
}

func (r *UserPG) findOne(ctx context.Context, query string, arg string) (entity.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	var user entity.User
	err := r.db.conn(ctx).QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.FavoriteGenre, &user.PasswordHash)
	if err != nil {
		return entity.User{}, pgNotFound(err)
	}
	return user, nil
}
