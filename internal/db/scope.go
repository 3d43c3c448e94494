package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
)

// Execer is the subset of *sql.DB used for DDL.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	Execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Querier additionally opens transactions; *sql.DB and *sql.Conn satisfy it.
type Querier interface {
	DBTX
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type scopeKey struct{}

// scope owns at most one connection, acquired on first use.
type scope struct {
	pool *sql.DB

	mu     sync.Mutex
	conn   *sql.Conn
	closed bool
}

// WithScope attaches a lazy connection scope to ctx. The returned release
// func must be called on every exit path; it is safe to call more than once.
func WithScope(ctx context.Context, pool *sql.DB) (context.Context, func()) {
	s := &scope{pool: pool}
	return context.WithValue(ctx, scopeKey{}, s), s.release
}

// Handle returns the store handle for ctx. Inside a scope it is the scope's
// dedicated connection, acquired now if this is the first use. Outside a
// scope it is the pool itself.
func Handle(ctx context.Context, pool *sql.DB) (Querier, error) {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok || s.pool != pool {
		return pool, nil
	}
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *scope) acquire(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("acquire connection: %w", sql.ErrConnDone)
	}
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	s.conn = conn
	return conn, nil
}

func (s *scope) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// ScopeMiddleware gives each request its own lazily acquired connection and
// returns it to the pool when the handler finishes, including on panic.
func ScopeMiddleware(pool *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, release := WithScope(r.Context(), pool)
			defer release()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
