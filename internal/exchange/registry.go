package exchange

import (
	"sort"
	"sync"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/config"
)

// Registry maintains connectors keyed by exchange identifier.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector under its canonical exchange name.
func (r *Registry) Register(conn Connector) {
	if conn == nil {
		panic("exchange connector required")
	}
	name := config.NormalizeExchangeName(conn.Name())
	if name == "" {
		panic("exchange connector name required")
	}
	r.mu.Lock()
	r.connectors[name] = conn
	r.mu.Unlock()
}

// Connector resolves the connector for the exchange identifier. Unknown
// identifiers are a configuration error, reported as not_found.
func (r *Registry) Connector(name string) (Connector, error) {
	key := config.NormalizeExchangeName(name)
	r.mu.RLock()
	conn, ok := r.connectors[key]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.New(key, errs.CodeNotFound, errs.WithMessage("unknown exchange"))
	}
	return conn, nil
}

// Identifiers enumerates registered exchange identifiers in sorted order.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
