package site

// Registry resolves URLs to adapters. Adapters are evaluated in registration
// order and the first match wins; the fallback handles everything else.
type Registry struct {
	adapters []Adapter
	fallback Adapter
}

// NewRegistry creates a registry from site adapters in priority order and a
// catch-all fallback. The fallback's Match is replaced by Any so Resolve
// always returns an adapter.
func NewRegistry(fallback Adapter, adapters ...Adapter) *Registry {
	fallback.Match = Any()
	cp := make([]Adapter, len(adapters))
	copy(cp, adapters)
	return &Registry{adapters: cp, fallback: fallback}
}

// Resolve returns the first adapter whose predicate matches url, or the
// fallback.
func (r *Registry) Resolve(url string) Adapter {
	for _, a := range r.adapters {
		if a.IsAdaptedURL(url) {
			return a
		}
	}
	return r.fallback
}

// Adapters returns every adapter in evaluation order, fallback last.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.adapters)+1)
	out = append(out, r.adapters...)
	return append(out, r.fallback)
}
