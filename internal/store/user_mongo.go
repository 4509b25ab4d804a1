package store

import (
	"context"
	"time"

	"librarygql/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Username      string             `bson:"username"`
	FavoriteGenre string             `bson:"favoriteGenre"`
	PasswordHash  string             `bson:"passwordHash"`
}

func (d userDoc) entity() entity.User {
	return entity.User{
		ID:            d.ID.Hex(),
		Username:      d.Username,
		FavoriteGenre: d.FavoriteGenre,
		PasswordHash:  d.PasswordHash,
	}
}

type UserMongo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *UserMongo) Create(ctx context.Context, u *entity.User) error {
	if err := validateEntity("User", u); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := userDoc{
		ID:            primitive.NewObjectID(),
		Username:      u.Username,
		FavoriteGenre: u.FavoriteGenre,
		PasswordHash:  u.PasswordHash,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateError{Entity: "User", Field: "username", Value: u.Username}
		}
		return err
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *UserMongo) FindByUsername(ctx context.Context, username string) (entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *UserMongo) FindByID(ctx context.Context, id string) (entity.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return entity.User{}, err
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *UserMongo) findOne(ctx context.Context, filter bson.D) (entity.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return entity.User{}, mongoNotFound(err)
	}
	return doc.entity(), nil
}
