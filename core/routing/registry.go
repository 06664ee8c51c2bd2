package routing

import "github.com/kilianp07/fieldsim/core/factory"

var (
	backendRegistry = factory.NewRegistry[Backend]()
	cacheRegistry   = factory.NewRegistry[Cache]()
)

// RegisterBackend adds a routing backend factory identified by name.
func RegisterBackend(name string, f factory.Factory[Backend]) error {
	return backendRegistry.Register(name, f)
}

// NewBackend creates the backend described by cfg.
func NewBackend(cfg factory.ModuleConfig) (Backend, error) {
	return backendRegistry.Create(cfg)
}

// Backends lists the registered backend names.
func Backends() []string { return backendRegistry.Names() }

// RegisterCache adds a route cache factory identified by name.
func RegisterCache(name string, f factory.Factory[Cache]) error {
	return cacheRegistry.Register(name, f)
}

// NewCache creates the cache described by cfg. An empty type or "none"
// returns a nil Cache.
func NewCache(cfg factory.ModuleConfig) (Cache, error) {
	if cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}
	return cacheRegistry.Create(cfg)
}

func init() {
	_ = RegisterCache("memory", func(map[string]any) (Cache, error) {
		return NewMemoryCache(), nil
	})
}

// Caches lists the registered cache names.
func Caches() []string { return cacheRegistry.Names() }
