// Package events provides a typed in-process event dispatcher. Services
// publish domain events after their transactions commit; consumers such as
// the autocomplete cache subscribe at startup.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Event is implemented by all published event types.
type Event interface {
	EventName() string
}

// SaleCompleted is published after a sale commits.
type SaleCompleted struct {
	SaleID        uuid.UUID
	Total         float64
	PaymentMethod string
}

func (SaleCompleted) EventName() string { return "sale.completed" }

// PaymentRegistered is published after a customer payment is applied
// against outstanding debts.
type PaymentRegistered struct {
	CustomerID uuid.UUID
	Applied    float64
}

func (PaymentRegistered) EventName() string { return "payment.registered" }

// ProductChanged is published after a product is created, updated or
// deleted. Consumers such as the autocomplete cache invalidate on it.
type ProductChanged struct {
	ProductID uuid.UUID
	Action    string
}

func (ProductChanged) EventName() string { return "product.changed" }

// StockAdjusted is published after a manual stock adjustment.
type StockAdjusted struct {
	ProductID    uuid.UUID
	NewAvailable float64
}

func (StockAdjusted) EventName() string { return "stock.adjusted" }

// Handler receives published events.
type Handler func(Event)

// Dispatcher fans events out to subscribers. Publish runs handlers
// synchronously in subscription order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the named event.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Publish delivers the event to every handler subscribed to its name.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	hs := d.handlers[e.EventName()]
	d.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
}
