// Package gateway mounts the GraphQL endpoint, health probes and metrics
// behind the HTTP middleware chain.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"librarygql/internal/auth"
	"librarygql/internal/httpx"
	"librarygql/internal/metrics"

	"github.com/99designs/gqlgen/graphql/playground"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"
	"go.uber.org/zap"
)

const (
	PathGraphQL = "/graphql"
	PathHealth  = "/healthz"
	PathReady   = "/readyz"
	PathMetrics = "/metrics"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Schema   *graphql.Schema
	Store    Pinger
	Auth     httpx.CurrentUserResolver
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Limiter  *httpx.RateLimitMiddleware
	Origins  []string
	HSTS     bool
	MaxBody  int64
	PingWait time.Duration
}

// New builds the root handler.
func New(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PingWait <= 0 {
		opts.PingWait = 2 * time.Second
	}

	mux := http.NewServeMux()
	mux.Handle(PathGraphQL, GraphQLHandler(opts.Schema))
	mux.HandleFunc(PathHealth, healthz)
	mux.HandleFunc(PathReady, readyz(opts.Store, opts.PingWait, opts.Logger))
	if opts.Metrics != nil {
		mux.Handle(PathMetrics, opts.Metrics.Handler())
	}

	chain := []func(http.Handler) http.Handler{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(opts.Logger),
		httpx.RecoveryMiddleware(opts.Logger),
		httpx.MetricsMiddleware(opts.Metrics, PathGraphQL, PathHealth, PathReady, PathMetrics),
		httpx.SecurityHeadersMiddleware(opts.HSTS),
		httpx.CORSMiddleware(opts.Origins),
	}
	if opts.MaxBody > 0 {
		chain = append(chain, httpx.RequestSizeLimitMiddleware(opts.MaxBody))
	}
	if opts.Limiter != nil {
		chain = append(chain, opts.Limiter.Middleware)
	}
	if opts.Auth != nil {
		chain = append(chain, httpx.AuthMiddleware(opts.Auth, opts.Logger))
	}
	return httpx.Chain(mux, chain...)
}

// GraphQLHandler serves queries and mutations over POST, subscriptions over
// the graphql-ws websocket protocol and the playground on a plain GET.
func GraphQLHandler(schema *graphql.Schema) http.Handler {
	page := playground.Handler("Library", PathGraphQL)
	post := &relay.Handler{Schema: schema}

	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			post.ServeHTTP(w, r)
		case http.MethodGet:
			// The playground loads its assets from a CDN.
			w.Header().Del("Content-Security-Policy")
			page.ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
	})

	return graphqlws.NewHandlerFunc(schema, fallback,
		graphqlws.WithContextGenerator(graphqlws.ContextGeneratorFunc(subscriptionContext)),
	)
}

// subscriptionContext keeps the caller resolved during the upgrade request
// but detaches from its cancellation, which fires once the handler returns.
func subscriptionContext(ctx context.Context, r *http.Request) (context.Context, error) {
	return auth.ContextWithUser(context.WithoutCancel(ctx), auth.UserFrom(r.Context())), nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

func readyz(store Pinger, wait time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStatus(w, http.StatusOK, "ready")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
