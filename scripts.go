package newsletter

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

type loadResult[T any] struct {
	value T
	err   error
}

// Registry shares loads by key: concurrent requests for the same key wait
// for one in-flight load, later requests get the settled result, failures
// included. Loads ending with a context error are not settled. The zero
// value is ready to use.
type Registry[T any] struct {
	group singleflight.Group

	mu   sync.Mutex
	done map[string]loadResult[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Load returns the result for key, calling load at most once per key.
func (r *Registry[T]) Load(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if res, ok := r.lookup(key); ok {
		return res.value, res.err
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		if res, ok := r.lookup(key); ok {
			return res, nil
		}
		value, err := load(ctx)
		res := loadResult[T]{value: value, err: err}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// the caller gave up, a later request loads again
			return res, nil
		}
		r.mu.Lock()
		if r.done == nil {
			r.done = make(map[string]loadResult[T])
		}
		r.done[key] = res
		r.mu.Unlock()
		return res, nil
	})
	res := v.(loadResult[T])
	return res.value, res.err
}

// Loaded reports whether key has a settled result.
func (r *Registry[T]) Loaded(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

func (r *Registry[T]) lookup(key string) (loadResult[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.done[key]
	return res, ok
}
