package lettuce

import (
	"sync"

	"github.com/gokit/errors"
)

// ErrCommandFailed wraps error replies surfaced by a command output.
var ErrCommandFailed = errors.New("command execution failed")

// subscriptionCommand wraps a subscription's command so that its outcome is
// fed back into the owning subscription: completion drains the output into
// the subscription's queue and signals all-data-read, failure runs the
// error path. The adapter is idempotent, once marked completed it ignores
// further completion, cancellation and error calls, which makes late
// transport signals after cancellation harmless no-ops.
type subscriptionCommand struct {
	command      Command
	subscription *redisSubscription
	dissolve     bool
	completed    AtomicBool

	sl     sync.Mutex
	source Source
}

func newSubscriptionCommand(command Command, subscription *redisSubscription, dissolve bool) *subscriptionCommand {
	return &subscriptionCommand{
		command:      command,
		subscription: subscription,
		dissolve:     dissolve,
	}
}

// Output returns the wrapped command's output.
func (sc *subscriptionCommand) Output() CommandOutput {
	return sc.command.Output()
}

// Unwrap returns the wrapped command. Implements CommandWrapper.
func (sc *subscriptionCommand) Unwrap() Command {
	return sc.command
}

// Completed reports whether the adapter has seen a terminal call.
func (sc *subscriptionCommand) Completed() bool {
	return sc.completed.IsTrue()
}

// Complete reads the command output and feeds it to the subscription. A
// streaming output already pushed its values during decode and contributes
// nothing here. A collection output is dissolved element by element when
// dissolve is enabled, preserving order and skipping nil elements. Any
// other output pushes its single result value. Every successful path ends
// by signalling all-data-read.
func (sc *subscriptionCommand) Complete() {
	if sc.completed.IsTrue() {
		return
	}
	defer sc.completed.On()

	sc.command.Complete()

	output := sc.command.Output()
	if output != nil {
		if output.HasError() {
			sc.subscription.OnError(errors.Wrap(ErrCommandFailed, "%s", output.Err()))
			return
		}

		switch out := output.(type) {
		case StreamingOutput:
			// values were already pushed during decode.
		case CollectionOutput:
			if sc.dissolve {
				for _, element := range out.TakeElements() {
					if element != nil {
						sc.subscription.OnNext(element)
					}
				}
			} else if result, ok := out.TakeResult(); ok && result != nil {
				sc.subscription.OnNext(result)
			}
		default:
			if result, ok := output.TakeResult(); ok && result != nil {
				sc.subscription.OnNext(result)
			}
		}
	}

	sc.subscription.onAllDataRead()
}

// Cancel forwards cancellation to the wrapped command and marks the
// adapter completed without pushing data.
func (sc *subscriptionCommand) Cancel() {
	if sc.completed.IsTrue() {
		return
	}

	sc.command.Cancel()
	sc.completed.On()
}

// CompleteWithError forwards the failure to the wrapped command and runs
// the subscription's error path.
func (sc *subscriptionCommand) CompleteWithError(err error) bool {
	if sc.completed.IsTrue() {
		return false
	}

	forwarded := sc.command.CompleteWithError(err)
	sc.subscription.OnError(err)
	sc.completed.On()
	return forwarded
}

// HasDemand reports whether the decode layer should keep producing.
// Completed commands and terminal subscriptions report demand since their
// pushes are discarded anyway; otherwise production continues only while
// outstanding demand exceeds what is already buffered.
func (sc *subscriptionCommand) HasDemand() bool {
	return sc.completed.IsTrue() ||
		sc.subscription.state() == stateCompleted ||
		sc.subscription.demand.Get() > int64(sc.subscription.queue.Total())
}

// SetSource registers the upstream flow-control source.
func (sc *subscriptionCommand) SetSource(source Source) {
	sc.sl.Lock()
	sc.source = source
	sc.sl.Unlock()
}

// RemoveSource drops the upstream flow-control source.
func (sc *subscriptionCommand) RemoveSource() {
	sc.sl.Lock()
	sc.source = nil
	sc.sl.Unlock()
}

// Source returns the registered flow-control source, if any.
func (sc *subscriptionCommand) Source() Source {
	sc.sl.Lock()
	source := sc.source
	sc.sl.Unlock()
	return source
}

// compositeSink fans each pushed value out to an ordered set of sinks in
// registration order, used when a command executes inside a transaction
// whose result collector needs the per-value notifications too.
type compositeSink struct {
	sinks []Sink
}

func newCompositeSink(sinks ...Sink) *compositeSink {
	cs := &compositeSink{sinks: make([]Sink, 0, len(sinks))}
	for _, sink := range sinks {
		if sink != nil {
			cs.sinks = append(cs.sinks, sink)
		}
	}
	return cs
}

// OnNext forwards the value to every registered sink.
func (cs *compositeSink) OnNext(value interface{}) {
	for _, sink := range cs.sinks {
		sink.OnNext(value)
	}
}
