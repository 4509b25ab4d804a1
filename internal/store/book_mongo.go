package store

import (
	"context"
	"time"

	"librarygql/internal/entity"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Published int                `bson:"published"`
	Author    primitive.ObjectID `bson:"author"`
	Genres    []string           `bson:"genres"`
}

func (d bookDoc) entity() entity.Book {
	genres := d.Genres
	if genres == nil {
		genres = []string{}
	}
	return entity.Book{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Published: d.Published,
		AuthorID:  d.Author.Hex(),
		Genres:    genres,
	}
}

type BookMongo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *BookMongo) Count(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	return int(n), err
}

// Find translates the filter into query predicates served by the author
// and multikey genres indexes.
func (r *BookMongo) Find(ctx context.Context, f BookFilter) ([]entity.Book, error) {
	filter := bson.D{}
	if f.AuthorID != "" {
		aid, err := objectID(f.AuthorID)
		if err != nil {
			return []entity.Book{}, nil
		}
		filter = append(filter, bson.E{Key: "author", Value: aid})
	}
	if f.Genre != "" {
		filter = append(filter, bson.E{Key: "genres", Value: f.Genre})
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return lo.Map(docs, func(d bookDoc, _ int) entity.Book { return d.entity() }), nil
}

func (r *BookMongo) Create(ctx context.Context, b *entity.Book) error {
	if err := validateEntity("Book", b); err != nil {
		return err
	}
	aid, err := primitive.ObjectIDFromHex(b.AuthorID)
	if err != nil {
		return &ValidationError{Entity: "Book", Fields: []FieldError{{Field: "author", Message: "author: cast to ObjectId failed"}}}
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	genres := b.Genres
	if genres == nil {
		genres = []string{}
	}
	doc := bookDoc{ID: primitive.NewObjectID(), Title: b.Title, Published: b.Published, Author: aid, Genres: genres}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	b.ID = doc.ID.Hex()
	b.Genres = genres
	return nil
}

func (r *BookMongo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	_, err = r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	return err
}

func (r *BookMongo) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
