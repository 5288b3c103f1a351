package lettuce

import (
	"sync"

	"github.com/gokit/errors"
	"github.com/gokit/es"
)

// ErrCommandClaimed is returned when a fixed-command publisher is
// subscribed to a second time.
var ErrCommandClaimed = errors.New("fixed command already claimed by a previous subscriber")

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogs sets the logger used by the publisher and its subscriptions.
func WithLogs(logs Logs) PublisherOption {
	return func(p *Publisher) {
		p.logs = logs
	}
}

// WithEventer sets the lifecycle event stream used by the publisher and
// its subscriptions.
func WithEventer(events *Eventer) PublisherOption {
	return func(p *Publisher) {
		p.events = events
	}
}

// WithBufferLimit bounds each subscription's value queue to limit values.
// A push past the limit is surfaced as an overflow error to the
// subscriber. Subscriptions are unbounded by default.
func WithBufferLimit(limit int) PublisherOption {
	return func(p *Publisher) {
		p.bufferLimit = limit
	}
}

// Publisher executes one command per attached subscriber, streaming the
// command's results to that subscriber under its demand.
//
// A publisher constructed from a fixed command serves that command to its
// first subscriber only; the command is claimed atomically so it can never
// be dispatched twice, and later subscribers are refused. A publisher
// constructed from a supplier hands every subscriber a freshly supplied
// command and can be subscribed to any number of times.
type Publisher struct {
	conn        Connection
	dissolve    bool
	logs        Logs
	events      *Eventer
	bufferLimit int

	supplier func() Command

	cm    sync.Mutex
	fixed Command
}

// NewPublisher returns a publisher for a single fixed command.
func NewPublisher(command Command, conn Connection, dissolve bool, ops ...PublisherOption) *Publisher {
	p := &Publisher{
		conn:     conn,
		dissolve: dissolve,
		fixed:    command,
	}
	return p.init(ops)
}

// NewSuppliedPublisher returns a publisher that obtains a fresh command
// from supplier for every subscriber.
func NewSuppliedPublisher(supplier func() Command, conn Connection, dissolve bool, ops ...PublisherOption) *Publisher {
	p := &Publisher{
		conn:     conn,
		dissolve: dissolve,
		supplier: supplier,
	}
	return p.init(ops)
}

func (p *Publisher) init(ops []PublisherOption) *Publisher {
	p.logs = DrainLog{}
	p.events = NewEventer()
	p.bufferLimit = -1

	for _, op := range ops {
		op(p)
	}
	return p
}

// Watch adds a handler observing the lifecycle events of subscriptions
// created by this publisher.
func (p *Publisher) Watch(handler func(interface{})) es.Subscription {
	return p.events.Watch(handler)
}

// Subscribe attaches subscriber to a new subscription of this publisher.
// The subscriber receives OnSubscribe synchronously; its command is
// dispatched on first demand.
func (p *Publisher) Subscribe(subscriber Subscriber) error {
	command, err := p.claimCommand()
	if err != nil {
		return err
	}

	queue := UnboundedQueue()
	if p.bufferLimit >= 0 {
		queue = BoundedQueue(p.bufferLimit, DropNew)
	}

	subscription := newRedisSubscription(p.conn, command, p.dissolve, queue, p.logs, p.events)
	return subscription.subscribe(subscriber)
}

// claimCommand takes the fixed command exactly once, falling back to the
// supplier for every later subscriber.
func (p *Publisher) claimCommand() (Command, error) {
	p.cm.Lock()
	command := p.fixed
	p.fixed = nil
	p.cm.Unlock()

	if command != nil {
		return command, nil
	}
	if p.supplier == nil {
		return nil, errors.WrapOnly(ErrCommandClaimed)
	}
	return p.supplier(), nil
}
