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

type authorDoc struct {
	ID    primitive.ObjectID   `bson:"_id,omitempty"`
	Name  string               `bson:"name"`
	Born  *int                 `bson:"born,omitempty"`
	Books []primitive.ObjectID `bson:"books"`
}

func (d authorDoc) entity() entity.Author {
	return entity.Author{
		ID:    d.ID.Hex(),
		Name:  d.Name,
		Born:  d.Born,
		Books: lo.Map(d.Books, func(id primitive.ObjectID, _ int) string { return id.Hex() }),
	}
}

type AuthorMongo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *AuthorMongo) Count(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	return int(n), err
}

func (r *AuthorMongo) FindAll(ctx context.Context) ([]entity.Author, error) {
	return r.find(ctx, bson.D{})
}

func (r *AuthorMongo) FindByName(ctx context.Context, name string) (entity.Author, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	var doc authorDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc); err != nil {
		return entity.Author{}, mongoNotFound(err)
	}
	return doc.entity(), nil
}

func (r *AuthorMongo) FindByIDs(ctx context.Context, ids []string) ([]entity.Author, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
}

func (r *AuthorMongo) find(ctx context.Context, filter bson.D) ([]entity.Author, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []authorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return lo.Map(docs, func(d authorDoc, _ int) entity.Author { return d.entity() }), nil
}

func (r *AuthorMongo) Create(ctx context.Context, a *entity.Author) error {
	if err := validateEntity("Author", a); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := authorDoc{ID: primitive.NewObjectID(), Name: a.Name, Born: a.Born, Books: []primitive.ObjectID{}}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateError{Entity: "Author", Field: "name", Value: a.Name}
		}
		return err
	}
	a.ID = doc.ID.Hex()
	a.Books = []string{}
	return nil
}

func (r *AuthorMongo) AppendBook(ctx context.Context, authorID, bookID string) error {
	aid, err := objectID(authorID)
	if err != nil {
		return err
	}
	bid, err := objectID(bookID)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: aid}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "books", Value: bid}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AuthorMongo) UpdateBorn(ctx context.Context, name string, born int) (entity.Author, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc authorDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "name", Value: name}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "born", Value: born}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return entity.Author{}, mongoNotFound(err)
	}
	return doc.entity(), nil
}

func (r *AuthorMongo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	_, err = r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	return err
}

func (r *AuthorMongo) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
