package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDispatcher_PublishDeliversToSubscribers(t *testing.T) {
	d := NewDispatcher()

	var got []Event
	d.Subscribe(SaleCompleted{}.EventName(), func(e Event) {
		got = append(got, e)
	})
	d.Subscribe(SaleCompleted{}.EventName(), func(e Event) {
		got = append(got, e)
	})

	ev := SaleCompleted{SaleID: uuid.New(), Total: 150.50, PaymentMethod: "cash"}
	d.Publish(ev)

	assert.Len(t, got, 2)
	assert.Equal(t, ev, got[0])
	assert.Equal(t, ev, got[1])
}

func TestDispatcher_PublishIgnoresUnrelatedEvents(t *testing.T) {
	d := NewDispatcher()

	called := false
	d.Subscribe(ProductChanged{}.EventName(), func(Event) { called = true })

	d.Publish(PaymentRegistered{CustomerID: uuid.New(), Applied: 40})

	assert.False(t, called)
}

func TestDispatcher_PublishWithoutSubscribers(t *testing.T) {
	d := NewDispatcher()

	assert.NotPanics(t, func() {
		d.Publish(StockAdjusted{ProductID: uuid.New(), NewAvailable: 3.5})
	})
}
