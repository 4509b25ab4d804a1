package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// PG is the Postgres backend. The schema lives in db/migrations.
type PG struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func OpenPG(ctx context.Context, opts Options) (*PG, error) {
	opts.Logger.Info("connecting to Postgres", zap.String("uri", RedactURI(opts.URI)))
	pool, err := pgxpool.New(ctx, opts.URI)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", RedactURI(opts.URI), err)
	}
	opts.Logger.Info("database connection OK")
	return NewPG(pool, opts.Timeout), nil
}

func NewPG(pool *pgxpool.Pool, timeout time.Duration) *PG {
	return &PG{pool: pool, timeout: timeout}
}

// Pool exposes the underlying pool for migrations.
func (p *PG) Pool() *pgxpool.Pool { return p.pool }

func (p *PG) Authors() AuthorRepository { return &AuthorPG{db: p} }
func (p *PG) Books() BookRepository     { return &BookPG{db: p} }
func (p *PG) Users() UserRepository     { return &UserPG{db: p} }

func (p *PG) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(WithAtomic(context.WithValue(ctx, txKey{}, tx)))
	})
}

func (p *PG) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *PG) Close(context.Context) error {
	p.pool.Close()
	return nil
}

func (p *PG) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.pool
}

func (p *PG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, p.timeout)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func pgNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func validUUID(id string) bool {
	return uuid.Validate(id) == nil
}
