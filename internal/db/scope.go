package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// ErrNoScope is returned by Conn when the context carries no Scope.
var ErrNoScope = errors.New("no database scope in context")

// Scope is a database connection bound to the lifetime of a single request.
// The connection is taken from the pool on first use and handed back by Close.
type Scope struct {
	pool *sql.DB

	mu     sync.Mutex
	conn   *sql.Conn
	closed bool
}

// NewScope returns a Scope that acquires its connection from pool.
func NewScope(pool *sql.DB) *Scope {
	return &Scope{pool: pool}
}

// Conn returns the scope's connection, acquiring it if this is the first call.
func (s *Scope) Conn(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("acquiring connection: scope already closed")
	}
	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := s.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	s.conn = conn
	return conn, nil
}

// Acquired reports whether a connection has been taken from the pool.
func (s *Scope) Acquired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Close releases the connection back to the pool. It is safe to call more
// than once and on a scope that never acquired a connection.
func (s *Scope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("releasing connection: %w", err)
	}
	return nil
}

type scopeKey struct{}

// WithScope returns a copy of ctx carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the Scope carried by ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Conn returns the request-scoped connection carried by ctx.
func Conn(ctx context.Context) (*sql.Conn, error) {
	s := ScopeFrom(ctx)
	if s == nil {
		return nil, ErrNoScope
	}
	return s.Conn(ctx)
}

// ScopeMiddleware gives every request its own Scope and releases it when the
// handler returns, panics included.
func ScopeMiddleware(pool *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := NewScope(pool)
			defer func() {
				if err := s.Close(); err != nil {
					slog.Error("failed to release request connection", "error", err)
				}
			}()
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), s)))
		})
	}
}
