package facet

import (
	"reflect"
	"sync"
)

// pathKey identifies one resolved path: the projection class, the
// original path, and whether it was matched case-insensitively. Two
// classes never share entries, even for identical paths.
type pathKey struct {
	class reflect.Type
	path  string
	fold  bool
}

// pathCache memoizes resolved entity paths. One mutex guards the whole
// check-compute-insert sequence, so two goroutines resolving the same
// key compute at most once. Failed resolutions are not cached.
type pathCache struct {
	mu sync.Mutex
	m  map[pathKey]string
}

func newPathCache() *pathCache {
	return &pathCache{m: make(map[pathKey]string)}
}

// resolve returns the cached entry for k, computing and storing it with
// fn on a miss. fn runs with the lock held.
func (c *pathCache) resolve(k pathKey, fn func() (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.m[k]; ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return "", err
	}
	c.m[k] = v
	return v, nil
}
