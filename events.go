package lettuce

import "github.com/gokit/es"

// Eventer implements a lifecycle event stream by decorating
// the gokit es event implementation.
type Eventer struct {
	es es.EventStream
}

// NewEventer returns a instance of a Eventer.
func NewEventer() *Eventer {
	return &Eventer{es: es.New()}
}

// Publish publishes a giving message.
func (e *Eventer) Publish(m interface{}) {
	e.es.Publish(m)
}

// Watch adds a giving subscription for all published events using the
// provided handler.
func (e *Eventer) Watch(handler func(interface{})) es.Subscription {
	return e.es.Subscribe(func(m interface{}) {
		handler(m)
	})
}

// SubscriptionCreated is published when a subscriber attaches to a
// publisher and a new subscription comes alive.
type SubscriptionCreated struct {
	ID string
}

// CommandDispatched is published when first demand sends a subscription's
// command to the connection.
type CommandDispatched struct {
	ID string
}

// SubscriptionCompleted is published when a subscription reaches its
// terminal state. Err carries the failure if the subscription ended in
// error, and is nil for normal completion and cancellation.
type SubscriptionCompleted struct {
	ID  string
	Err error
}
