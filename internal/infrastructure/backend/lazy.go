package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// Lazy is a process-lifetime backend built on first use. It exists for the
// privileged client: construction may fail (missing service credential) and
// the failure is remembered and returned as ErrBackendUnavailable on every call
// instead of crashing the process at startup.
//
// The backend it holds bypasses row-level security. Hand it only to server-side
// repositories that sit behind the mutation authorizer.
type Lazy struct {
	mu     sync.Mutex
	build  func() (domain.Backend, error)
	built  bool
	closed bool
	b      domain.Backend
	err    error
}

var errLazyClosed = errors.New("backend closed")

// NewLazy returns a Lazy that calls build at most once
func NewLazy(build func() (domain.Backend, error)) *Lazy {
	return &Lazy{build: build}
}

// Get returns the backend, building it on first call
func (l *Lazy) Get() (domain.Backend, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, errLazyClosed)
	}
	if !l.built {
		l.built = true
		l.b, l.err = l.build()
		if l.err == nil && l.b == nil {
			l.err = domain.ErrBackendUnavailable
		}
	}
	if l.err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, l.err)
	}
	return l.b, nil
}

// Close closes the built backend if it is an io.Closer. A Lazy that was never
// used is not built afterwards.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if c, ok := l.b.(io.Closer); ok && l.err == nil {
		return c.Close()
	}
	return nil
}

func (l *Lazy) Select(ctx context.Context, q domain.Query, dest any) error {
	b, err := l.Get()
	if err != nil {
		return err
	}
	return b.Select(ctx, q, dest)
}

func (l *Lazy) RPC(ctx context.Context, fn string, params map[string]any, dest any) error {
	b, err := l.Get()
	if err != nil {
		return err
	}
	return b.RPC(ctx, fn, params, dest)
}

func (l *Lazy) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	b, err := l.Get()
	if err != nil {
		return err
	}
	return b.Insert(ctx, table, values, dest)
}

func (l *Lazy) Upsert(ctx context.Context, table string, values map[string]any, onConflict string, dest any) error {
	b, err := l.Get()
	if err != nil {
		return err
	}
	return b.Upsert(ctx, table, values, onConflict, dest)
}

func (l *Lazy) Update(ctx context.Context, table string, values map[string]any, filters []domain.Filter, dest any) error {
	b, err := l.Get()
	if err != nil {
		return err
	}
	return b.Update(ctx, table, values, filters, dest)
}

func (l *Lazy) Ping(ctx context.Context) error {
	b, err := l.Get()
	if err != nil {
		return err
	}
	return b.Ping(ctx)
}
