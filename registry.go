package facet

import (
	"reflect"
	"sync"
)

// Registry is the projection metadata façade. It looks up metadata by
// class, synthesizes implicit identity metadata for entity classes
// without an explicit projection, and translates projection field paths
// into entity field paths through a per-registry cache.
//
// A Registry is safe for concurrent use.
type Registry struct {
	provider Provider
	lazy     *lazyProvider
	source   EntitySource
	cache    *pathCache
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry) error

// WithEntitySource sets the source the registry consults for classes
// without an explicit projection. Without one, such classes resolve to
// no metadata at all.
func WithEntitySource(src EntitySource) RegistryOption {
	return func(r *Registry) error {
		if src == nil {
			return NewConfigurationError("nil entity source", nil)
		}
		r.source = src
		return nil
	}
}

// NewRegistry returns a registry reading metadata from the given
// provider.
func NewRegistry(p Provider, opts ...RegistryOption) (*Registry, error) {
	if p == nil {
		return nil, NewConfigurationError("nil provider", ErrNoProvider)
	}
	return newRegistry(&Registry{provider: p}, opts)
}

// NewLazyRegistry returns a registry whose provider is built by factory
// on first use. The factory runs at most once, even under concurrent
// first calls; a failure is latched and reported by every subsequent
// call as a ConfigurationError.
func NewLazyRegistry(factory func() (Provider, error), opts ...RegistryOption) (*Registry, error) {
	if factory == nil {
		return nil, NewConfigurationError("nil provider factory", ErrNoProvider)
	}
	return newRegistry(&Registry{lazy: &lazyProvider{build: factory}}, opts)
}

func newRegistry(r *Registry, opts []RegistryOption) (*Registry, error) {
	r.cache = newPathCache()
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// lazyProvider builds a provider on first use and latches the outcome,
// success or failure, for the lifetime of the registry.
type lazyProvider struct {
	build func() (Provider, error)
	once  sync.Once
	p     Provider
	err   error
}

func (l *lazyProvider) get() (Provider, error) {
	l.once.Do(func() {
		p, err := l.build()
		switch {
		case err != nil:
			l.err = NewConfigurationError("building metadata provider", err)
		case p == nil:
			l.err = NewConfigurationError("provider factory returned no provider", ErrNoProvider)
		default:
			l.p = p
		}
	})
	return l.p, l.err
}

func (r *Registry) metadataProvider() (Provider, error) {
	if r.lazy != nil {
		return r.lazy.get()
	}
	return r.provider, nil
}

// MetadataFor returns the projection metadata for the given class: the
// provider's metadata when the class has an explicit projection,
// implicit identity metadata when the class is a known entity, and nil
// metadata with a nil error for everything else. Implicit metadata is
// synthesized anew on every call; only resolved paths are cached.
func (r *Registry) MetadataFor(class reflect.Type) (*Metadata, error) {
	if class == nil {
		return nil, nil
	}
	p, err := r.metadataProvider()
	if err != nil {
		return nil, err
	}
	if m, ok := p.Lookup(class); ok {
		return m, nil
	}
	if r.source != nil && r.source.IsEntity(class) {
		fields, err := r.source.Fields(class)
		if err != nil {
			return nil, err
		}
		return implicitMetadata(class, fields)
	}
	return nil, nil
}

// HasProjection reports whether an explicit projection is registered
// for the given class. Implicit entity metadata does not count.
func (r *Registry) HasProjection(class reflect.Type) (bool, error) {
	if class == nil {
		return false, nil
	}
	p, err := r.metadataProvider()
	if err != nil {
		return false, err
	}
	_, ok := p.Lookup(class)
	return ok, nil
}

// RequiredEntityFields returns the entity fields needed to populate a
// projection of the given class, or an empty sequence when the class
// has no metadata.
func (r *Registry) RequiredEntityFields(class reflect.Type) ([]string, error) {
	m, err := r.MetadataFor(class)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return m.RequiredEntityFields(), nil
}

// ToEntityPath translates a dotted projection field path of the given
// class into the entity path it reads from. With fold set, segments are
// matched case-insensitively. Successful translations are cached per
// (class, path, fold); failures are never cached and always surface as
// a ResolutionError carrying the original path.
func (r *Registry) ToEntityPath(path string, class reflect.Type, fold bool) (string, error) {
	return r.cache.resolve(pathKey{class: class, path: path, fold: fold}, func() (string, error) {
		return r.resolvePath(path, class, fold)
	})
}
