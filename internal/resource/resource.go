// Package resource models the idle/loading/ready/failed lifecycle of data a
// view fetches asynchronously.
package resource

import (
	"context"
	"errors"
	"sync"
)

// Status tags the variant held by a Resource.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Resource is a snapshot of one asynchronous value. Data is meaningful only
// when Status is Ready and Err only when Status is Failed.
type Resource[T any] struct {
	Status Status
	Data   T
	Err    error
}

// IsReady reports whether Data holds a loaded value.
func (r Resource[T]) IsReady() bool { return r.Status == Ready }

// IsLoading reports whether a load is outstanding.
func (r Resource[T]) IsLoading() bool { return r.Status == Loading }

var (
	// ErrBusy is returned when a load is started while another is outstanding.
	ErrBusy = errors.New("load already in progress")
	// ErrStale is returned when a result arrives after being superseded or
	// after the loader was closed. The result is discarded.
	ErrStale = errors.New("stale result discarded")
)

// Token identifies one load attempt.
type Token uint64

// Loader guards a Resource so at most one load is outstanding and results of
// superseded attempts are never applied. It is safe for concurrent use.
type Loader[T any] struct {
	mu     sync.Mutex
	state  Resource[T]
	token  Token
	closed bool
}

// State returns the current snapshot.
func (l *Loader[T]) State() Resource[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start begins a load. It is refused with ErrBusy while another load is
// outstanding and with ErrStale once the loader is closed.
func (l *Loader[T]) Start() (Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrStale
	}
	if l.state.Status == Loading {
		return 0, ErrBusy
	}
	return l.begin(), nil
}

// Supersede begins a load even if one is outstanding; the earlier attempt's
// result will be discarded on arrival.
func (l *Loader[T]) Supersede() (Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrStale
	}
	return l.begin(), nil
}

func (l *Loader[T]) begin() Token {
	l.token++
	var zero T
	l.state = Resource[T]{Status: Loading, Data: zero}
	return l.token
}

// Finish applies the result of attempt tok. It returns ErrStale, leaving the
// state untouched, when tok is no longer current.
func (l *Loader[T]) Finish(tok Token, data T, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || tok != l.token || l.state.Status != Loading {
		return ErrStale
	}
	if err != nil {
		l.state = Resource[T]{Status: Failed, Err: err}
		return nil
	}
	l.state = Resource[T]{Status: Ready, Data: data}
	return nil
}

// Reset returns to Idle and invalidates any outstanding attempt.
func (l *Loader[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token++
	l.state = Resource[T]{}
}

// Close invalidates outstanding attempts and refuses new ones.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.token++
}

// Load runs fetch as one attempt started with Start. The fetch error, if
// any, is returned after being recorded in the state.
func (l *Loader[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	tok, err := l.Start()
	if err != nil {
		return err
	}
	return l.run(ctx, tok, fetch)
}

// Reload is Load started with Supersede.
func (l *Loader[T]) Reload(ctx context.Context, fetch func(context.Context) (T, error)) error {
	tok, err := l.Supersede()
	if err != nil {
		return err
	}
	return l.run(ctx, tok, fetch)
}

func (l *Loader[T]) run(ctx context.Context, tok Token, fetch func(context.Context) (T, error)) error {
	data, fetchErr := fetch(ctx)
	if err := l.Finish(tok, data, fetchErr); err != nil {
		return err
	}
	return fetchErr
}
