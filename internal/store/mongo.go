package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	authorsCollection = "authors"
	booksCollection   = "books"
	usersCollection   = "users"
)

// Mongo is the document-store backend.
type Mongo struct {
	client       *mongo.Client
	db           *mongo.Database
	timeout      time.Duration
	transactions bool
	logger       *zap.Logger
}

func OpenMongo(ctx context.Context, opts Options) (*Mongo, error) {
	if opts.Database == "" {
		opts.Database = "library"
	}
	opts.Logger.Info("connecting to MongoDB", zap.String("uri", RedactURI(opts.URI)))

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	m := &Mongo{
		client:       client,
		db:           client.Database(opts.Database),
		timeout:      opts.Timeout,
		transactions: opts.MongoTransactions,
		logger:       opts.Logger,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.Ping(pingCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	opts.Logger.Info("connected to MongoDB", zap.String("database", opts.Database))
	return m, nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		authorsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		booksCollection: {
			{Keys: bson.D{{Key: "author", Value: 1}}},
			{Keys: bson.D{{Key: "genres", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range indexes {
		if _, err := m.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (m *Mongo) Authors() AuthorRepository {
	return &AuthorMongo{coll: m.db.Collection(authorsCollection), timeout: m.timeout}
}

func (m *Mongo) Books() BookRepository {
	return &BookMongo{coll: m.db.Collection(booksCollection), timeout: m.timeout}
}

func (m *Mongo) Users() UserRepository {
	return &UserMongo{coll: m.db.Collection(usersCollection), timeout: m.timeout}
}

// WithinTx uses a multi-document transaction when enabled. Transactions need a
// replica set, so standalone servers run fn without one.
func (m *Mongo) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(WithAtomic(sc))
	})
	return err
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// objectID parses a hex id. Ids that cannot exist in the store report ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
