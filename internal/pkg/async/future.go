// Package async provides a single-result future used wherever the realm talks
// to its collaborators. A Future is completed exactly once with a value or an
// error; callers either Await it or register a callback with OnComplete.
package async

import (
	"context"
	"fmt"
	"sync"
)

// Future is the read side of a single asynchronous result.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	val    T
	err    error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: func() {}}
}

// Go runs fn on its own goroutine and returns a Future for its result. The
// context passed to fn is cancelled when the Future is cancelled or fn returns.
// A panic inside fn fails the Future instead of crashing the process.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := newFuture[T]()
	f.cancel = cancel

	go func() {
		defer cancel()
		var (
			val T
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				val, err = zero, fmt.Errorf("async: recovered panic: %v", r)
			}
			f.complete(val, err)
		}()
		val, err = fn(ctx)
	}()
	return f
}

// Resolved returns an already completed Future holding v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.complete(v, nil)
	return f
}

// Failed returns an already completed Future holding err.
func Failed[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, err)
	return f
}

func (f *Future[T]) complete(v T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		completed = true
	})
	return completed
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the Future completes or ctx ends, whichever comes first.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel asks the producing goroutine to stop. It has no effect once the
// Future is complete.
func (f *Future[T]) Cancel() {
	f.cancel()
}

// OnComplete invokes cb with the result on a separate goroutine.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	go func() {
		<-f.done
		cb(f.val, f.err)
	}()
}

// Then chains fn onto f. The returned Future fails with f's error without
// calling fn.
func Then[T, U any](ctx context.Context, f *Future[T], fn func(ctx context.Context, v T) (U, error)) *Future[U] {
	return Go(ctx, func(ctx context.Context) (U, error) {
		v, err := f.Await(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(ctx, v)
	})
}

// Promise is the write side of a Future, for producers that complete results
// from somewhere other than a single function call.
type Promise[T any] struct {
	f *Future[T]
}

// NewPromise returns an incomplete Promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{f: newFuture[T]()}
}

// Future returns the read side.
func (p *Promise[T]) Future() *Future[T] {
	return p.f
}

// Resolve completes the Future with v. Only the first completion wins.
func (p *Promise[T]) Resolve(v T) bool {
	return p.f.complete(v, nil)
}

// Reject completes the Future with err. Only the first completion wins.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.f.complete(zero, err)
}
