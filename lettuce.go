// Package lettuce implements the reactive command layer of a database client.
// A Publisher executes one command per attached subscriber and converts the
// asynchronous, possibly multi-valued response into a demand-driven stream:
// values are buffered as the transport decodes them and released to the
// subscriber only up to outstanding demand.
package lettuce

//***************************************************************************
// Subscriber & Subscription
//***************************************************************************

// Subscriber receives the values produced by a subscribed command. A
// subscriber observes zero or more OnNext calls in production order followed
// by exactly one OnComplete or OnError, never both, and never an OnNext
// after either.
type Subscriber interface {
	OnSubscribe(Subscription)
	OnNext(interface{})
	OnComplete()
	OnError(error)
}

// Subscription is the flow-control handle handed to a Subscriber through
// OnSubscribe. Request and Cancel are safe for concurrent use from any
// goroutine.
type Subscription interface {
	// Request signals demand for n more values. A non-positive n is a
	// contract violation and is reported through the subscriber's OnError.
	Request(n int64)

	// Cancel terminates the subscription and cancels the underlying
	// command. Cancel is idempotent.
	Cancel()
}

//***************************************************************************
// Sink & Source
//***************************************************************************

// Sink receives individual values pushed by a decoding command output.
type Sink interface {
	OnNext(interface{})
}

// Source is the upstream handle of a streaming output. RequestMore asks the
// producing side to continue decoding, used to resume a source paused for
// lack of downstream demand and to drain a source once a subscription
// reaches its terminal state.
type Source interface {
	RequestMore()
}

// DemandAware is implemented by commands whose decode pace follows
// downstream demand. The transport consults HasDemand to decide whether to
// keep decoding and registers itself through SetSource so the consumer side
// can ask for more.
type DemandAware interface {
	HasDemand() bool
	SetSource(Source)
	RemoveSource()
}

//***************************************************************************
// Command & CommandOutput
//***************************************************************************

// CommandOutput carries the decoded result of a command. A batch output
// produces a single value available once the command completes; a
// StreamingOutput emits values incrementally during decode instead.
type CommandOutput interface {
	// IsStreaming reports whether values are emitted during decode rather
	// than held until completion.
	IsStreaming() bool

	// TakeResult returns the completed result value if one exists.
	TakeResult() (interface{}, bool)

	// HasError reports whether decoding produced an error reply.
	HasError() bool

	// Err returns the decoded error reply, if any.
	Err() error
}

// StreamingOutput is a CommandOutput that pushes values to a Sink as they
// are decoded, ahead of command completion.
type StreamingOutput interface {
	CommandOutput

	SetSink(Sink)
	Sink() Sink
}

// CollectionOutput is a CommandOutput whose completed result is an ordered
// collection. The shape is part of the output type so a publisher can
// dissolve the result element by element without inspecting the value.
type CollectionOutput interface {
	CommandOutput

	// TakeElements returns the completed result as its ordered elements.
	TakeElements() []interface{}
}

// Command is a single unit of work owned by exactly one subscription for
// its lifetime. The transport reports its outcome through Complete or
// CompleteWithError; cancelling the owning subscription cancels the command.
type Command interface {
	Output() CommandOutput
	Complete()
	Cancel()
	CompleteWithError(error) bool
	Completed() bool
}

// CommandWrapper is implemented by commands that decorate another command.
type CommandWrapper interface {
	Unwrap() Command
}

// UnwrapCommand peels all wrappers off cmd, returning the innermost command.
func UnwrapCommand(cmd Command) Command {
	for {
		wrapper, ok := cmd.(CommandWrapper)
		if !ok {
			return cmd
		}
		cmd = wrapper.Unwrap()
	}
}

//***************************************************************************
// Connection
//***************************************************************************

// Connection accepts commands for asynchronous execution. Dispatch hands a
// command to the transport; the outcome arrives later through the command's
// completion methods on whatever goroutine decodes the response.
type Connection interface {
	Dispatch(Command) error
}

// TransactionalConnection is implemented by connections that can be inside
// a MULTI block. While in a transaction, per-value push notifications must
// reach both the subscription and the transaction's own result collector.
type TransactionalConnection interface {
	Connection

	InTransaction() bool
}
