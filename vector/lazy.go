package vector

import "errors"

// ErrAlreadyLoaded reports a second load of a single-use loader
var ErrAlreadyLoaded = errors.New("lazy vector loaded twice")

// Loader performs a deferred column materialization. A loader is single use:
// it is invoked at most once, by the lazy vector that owns it.
type Loader interface {
	Load() (Vector, error)
}

// LazyVector is a column batch placeholder. The wrapped loader runs on first
// access; afterwards the resolved vector is served from the cache. A lazy
// vector can be reused across batches by resetting it with a fresh loader
// and length, which discards any previously resolved value.
type LazyVector struct {
	base
	loader Loader
	loaded Vector
}

// NewLazyVector creates an unresolved lazy vector
func NewLazyVector(typ *Type, length int, loader Loader) *LazyVector {
	return &LazyVector{
		base:   base{typ: typ, length: length, refs: 1},
		loader: loader,
	}
}

func (v *LazyVector) Encoding() Encoding { return EncodingLazy }

// IsLoaded reports whether the loader has already run
func (v *LazyVector) IsLoaded() bool { return v.loaded != nil }

// Loaded returns the resolved vector, running the loader on first access
func (v *LazyVector) Loaded() (Vector, error) {
	if v.loaded == nil {
		if v.loader == nil {
			return nil, errors.New("lazy vector has no loader")
		}
		loaded, err := v.loader.Load()
		if err != nil {
			return nil, err
		}
		v.loaded = loaded
		v.loader = nil
	}
	return v.loaded, nil
}

// LoadedVector returns the resolved vector without triggering a load
func (v *LazyVector) LoadedVector() Vector { return v.loaded }

// Reset rearms the lazy vector with a fresh loader and length, dropping any
// resolved value. Used for in-place reuse across read batches so a stale
// loader can never be retriggered.
func (v *LazyVector) Reset(loader Loader, length int) {
	v.loader = loader
	v.loaded = nil
	v.length = length
}

func (v *LazyVector) IsNullAt(i int) bool {
	if v.loaded != nil {
		return v.loaded.IsNullAt(i)
	}
	return false
}
