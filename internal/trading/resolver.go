// Package trading resolves per-exchange trading capabilities and normalizes
// abstract order requests into the shapes each venue requires.
package trading

import (
	"sync"

	"github.com/thecao365/orko/internal/config"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/paper"
)

// Resolver decides, per exchange, whether trading runs against the live
// connector or the paper engine. The decision is made once per exchange and
// cached for the life of the process; concurrent first use constructs the
// handle exactly once, and different exchanges never block each other.
type Resolver struct {
	registry *exchange.Registry
	settings config.Settings
	paper    *paper.Engine

	mu      sync.Mutex
	entries map[string]*resolved
}

type resolved struct {
	once    sync.Once
	trade   exchange.TradeService
	account exchange.AccountService
	err     error
}

// NewResolver constructs a resolver over the registry and settings.
func NewResolver(registry *exchange.Registry, settings config.Settings, engine *paper.Engine) *Resolver {
	if engine == nil {
		engine = paper.NewEngine()
	}
	return &Resolver{
		registry: registry,
		settings: settings,
		paper:    engine,
		entries:  make(map[string]*resolved),
	}
}

// Resolve returns the trade service for the exchange: paper when no usable
// credentials are configured, the live connector's otherwise. Unknown
// exchange identifiers are a client error, never silently mapped to paper.
func (r *Resolver) Resolve(name string) (exchange.TradeService, error) {
	entry := r.entry(name)
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.trade, nil
}

// ResolveAccount mirrors Resolve for the account capability.
func (r *Resolver) ResolveAccount(name string) (exchange.AccountService, error) {
	entry := r.entry(name)
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.account, nil
}

func (r *Resolver) entry(name string) *resolved {
	key := config.NormalizeExchangeName(name)

	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &resolved{}
		r.entries[key] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		conn, err := r.registry.Connector(key)
		if err != nil {
			entry.err = err
			return
		}
		if !r.settings.HasCredentials(key) {
			svc := r.paper.ForExchange(key)
			entry.trade = svc
			entry.account = svc
			return
		}
		entry.trade = conn.Trade()
		entry.account = conn.Account()
	})
	return entry
}
