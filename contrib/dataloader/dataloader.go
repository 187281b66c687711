// Package dataloader keeps batched projection loads aligned with the
// key order a dataloader expects. A batch function receives keys,
// fetches projection rows in whatever order the store returns them,
// and hands them back here to be lined up:
//
//	func accountBatch(ctx context.Context, ids []int64) ([]*AccountView, []error) {
//	    rows, err := fetchAccounts(ctx, ids)
//	    if err != nil {
//	        return nil, []error{err}
//	    }
//	    return dataloader.OrderByKeys(ids, rows, func(v *AccountView) int64 { return v.ID })
//	}
//
// One-to-many loads come back as one group per key:
//
//	rows, err := fetchOrdersOf(ctx, accountIDs)
//	...
//	groups := dataloader.GroupByKeys(accountIDs, rows, func(v *OrderView) int64 { return v.AccountID })
//
// The package wraps no dataloader implementation; the helpers fit
// github.com/graph-gophers/dataloader/v7 and
// github.com/vikstrous/dataloadgen alike. WithLoaders and For carry a
// request's loaders through the context, which is where GraphQL
// resolvers expect to find them.
package dataloader

import (
	"context"
	"errors"
)

// ErrNotFound marks a key the batch produced no row for.
var ErrNotFound = errors.New("dataloader: no row for key")

// KeyFunc extracts the key of one projection row.
type KeyFunc[K comparable, V any] func(V) K

// BatchFunc loads the projection rows of a batch of keys.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// OrderByKeys lines rows up with keys: the result has one slot per
// key, in key order, with ErrNotFound in the error slice where the
// batch produced no row. Rows sharing a key all resolve to the last
// one.
func OrderByKeys[K comparable, V any](keys []K, values []V, key KeyFunc[K, V]) ([]V, []error) {
	byKey := make(map[K]V, len(values))
	for _, v := range values {
		byKey[key(v)] = v
	}
	out := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, k := range keys {
		v, ok := byKey[k]
		if !ok {
			errs[i] = ErrNotFound
			continue
		}
		out[i] = v
	}
	return out, errs
}

// OrderByKeysSparse is OrderByKeys for optional relationships: missing
// keys stay zero-valued and raise no error.
func OrderByKeysSparse[K comparable, V any](keys []K, values []V, key KeyFunc[K, V]) []V {
	out, _ := OrderByKeys(keys, values, key)
	return out
}

// GroupByKey buckets rows by key, preserving row order inside each
// bucket.
func GroupByKey[K comparable, V any](values []V, key KeyFunc[K, V]) map[K][]V {
	groups := make(map[K][]V)
	for _, v := range values {
		k := key(v)
		groups[k] = append(groups[k], v)
	}
	return groups
}

// GroupByKeys buckets rows by key and lines the buckets up with keys,
// one group per key in key order. Keys without rows get a nil group.
func GroupByKeys[K comparable, V any](keys []K, values []V, key KeyFunc[K, V]) [][]V {
	groups := GroupByKey(values, key)
	out := make([][]V, len(keys))
	for i, k := range keys {
		out[i] = groups[k]
	}
	return out
}

// CachePrimer is the cache-priming side of a dataloader.
type CachePrimer[K comparable, V any] interface {
	Prime(key K, value V)
}

// PrimeMany primes a loader cache with freshly loaded rows, keyed by
// key. Useful after mutations.
func PrimeMany[K comparable, V any](cache CachePrimer[K, V], values []V, key KeyFunc[K, V]) {
	for _, v := range values {
		cache.Prime(key(v), v)
	}
}

// CacheClearer is the cache-invalidation side of a dataloader.
type CacheClearer[K comparable] interface {
	Clear(key K)
}

// ClearMany clears the given keys from a loader cache.
func ClearMany[K comparable](cache CacheClearer[K], keys []K) {
	for _, k := range keys {
		cache.Clear(k)
	}
}

type ctxKey struct{}

// WithLoaders stores a request's loaders in the context, typically
// from HTTP middleware so every resolver of the request shares one
// batch window.
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For returns the loaders stored by WithLoaders, or the zero value of
// T when the context carries none.
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}
