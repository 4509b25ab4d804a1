// Package graph exposes the library over GraphQL using graph-gophers/graphql-go.
package graph

import (
	"context"
	_ "embed"
	"fmt"

	"librarygql/internal/httpx"
	"librarygql/internal/usecase"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var SDL string

const DefaultMaxDepth = 12

type Options struct {
	MaxDepth int
	Logger   *zap.Logger
}

// NewSchema parses the SDL and binds it to a resolver backed by lib.
func NewSchema(lib *usecase.Library, opts Options) (*graphql.Schema, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	schema, err := graphql.ParseSchema(SDL, &Resolver{lib: lib},
		graphql.MaxDepth(opts.MaxDepth),
		graphql.Logger(panicLogger{logger: opts.Logger.With(zap.String("component", "graphql"))}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return schema, nil
}

// panicLogger routes resolver panics to zap. The executor turns the panic
// into a GraphQL error on the affected field.
type panicLogger struct {
	logger *zap.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.Error("resolver panic", httpx.RequestIDField(ctx), zap.Any("panic", value), zap.Stack("stack"))
}
