// Package paper implements the simulated trading backend substituted for a
// live connector when an exchange has no usable credentials.
package paper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/schema"
)

// Engine hands out one simulated trade service per exchange identifier.
// Services are created lazily and live for the life of the process.
type Engine struct {
	clock func() time.Time

	mu       sync.Mutex
	services map[string]*Service
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEngine constructs an empty paper trading engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:    time.Now,
		services: make(map[string]*Service),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// ForExchange returns the simulated service for the exchange, creating it on
// first use.
func (e *Engine) ForExchange(name string) *Service {
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, ok := e.services[name]
	if !ok {
		svc = newService(name, e.clock)
		e.services[name] = svc
	}
	return svc
}

// Service simulates trading for a single exchange without contacting a venue.
//
// Fill policy (deterministic by design): submitted orders acknowledge
// immediately with status NEW and never fill; they leave the book only
// through cancellation. No synthetic funds are held, so the wallet is empty.
type Service struct {
	exchange string
	clock    func() time.Time

	mu   sync.Mutex
	open map[string]*schema.Order
}

func newService(exchangeName string, clock func() time.Time) *Service {
	return &Service{
		exchange: exchangeName,
		clock:    clock,
		open:     make(map[string]*schema.Order),
	}
}

// PlaceLimitOrder accepts the order and returns a synthetic identifier.
func (s *Service) PlaceLimitOrder(ctx context.Context, order *schema.Order) (string, error) {
	return s.place(ctx, order)
}

// PlaceStopOrder accepts the order and returns a synthetic identifier.
func (s *Service) PlaceStopOrder(ctx context.Context, order *schema.Order) (string, error) {
	return s.place(ctx, order)
}

func (s *Service) place(ctx context.Context, order *schema.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if order == nil {
		return "", errs.New(s.exchange, errs.CodeInvalid, errs.WithMessage("order required"))
	}
	id := uuid.NewString()
	resting := order.Clone()
	resting.ID = id
	resting.Status = schema.StatusNew
	if resting.PlacedAt.IsZero() {
		resting.PlacedAt = s.clock()
	}
	s.mu.Lock()
	s.open[id] = resting
	s.mu.Unlock()
	return id, nil
}

// CancelOrder removes a matching open synthetic order, reporting whether one
// existed.
func (s *Service) CancelOrder(ctx context.Context, params exchange.CancelParams) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.open[params.OrderID]
	if !ok {
		return false, nil
	}
	if params.Pair != nil && order.Pair != *params.Pair {
		return false, nil
	}
	delete(s.open, params.OrderID)
	return true, nil
}

// OpenOrders answers from in-memory state, optionally scoped to a pair.
func (s *Service) OpenOrders(ctx context.Context, pair *schema.Pair) ([]*schema.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*schema.Order, 0, len(s.open))
	for _, order := range s.open {
		if pair != nil && order.Pair != *pair {
			continue
		}
		out = append(out, order.Clone())
	}
	return out, nil
}

// Order fetches a single synthetic order by id.
func (s *Service) Order(ctx context.Context, id string) (*schema.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.open[id]
	if !ok {
		return nil, errs.New(s.exchange, errs.CodeNotFound,
			errs.WithMessage("order not found"),
			errs.WithCanonicalCode(errs.CanonicalOrderNotFound))
	}
	return order.Clone(), nil
}

// Balances reports the empty simulated wallet. No funds move on paper.
func (s *Service) Balances(ctx context.Context) ([]schema.Balance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []schema.Balance{}, nil
}
