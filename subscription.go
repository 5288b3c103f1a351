package lettuce

import (
	"sync/atomic"

	"github.com/gokit/errors"
	"github.com/gokit/xid"
)

// errors ...
var (
	ErrNilSubscriber         = errors.New("Subscriber must not be nil")
	ErrAlreadySubscribed     = errors.New("Subscription already has a subscriber")
	ErrBadDemand             = errors.New("demand must be greater than zero")
	ErrSubscriptionCompleted = errors.New("Subscription has reached terminal state")
)

// subState enumerates the lifecycle of a subscription. All transitions run
// through compare-and-swap on a single atomic cell:
//
//	     UNSUBSCRIBED
//	      |
//	      v
//	NO_DEMAND -------------------> DEMAND
//	   |    ^                      ^    |
//	   |    |                      |    |
//	   |    --------- READING <-----    |
//	   |                 |              |
//	   |                 v              |
//	   ------------> COMPLETED <---------
type subState int32

const (
	stateUnsubscribed subState = iota
	stateNoDemand
	stateDemand
	stateReading
	stateCompleted
)

// String implements the Stringer interface.
func (s subState) String() string {
	switch s {
	case stateUnsubscribed:
		return "UNSUBSCRIBED"
	case stateNoDemand:
		return "NO_DEMAND"
	case stateDemand:
		return "DEMAND"
	case stateReading:
		return "READING"
	case stateCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// redisSubscription implements Subscription and Sink for one subscriber
// attachment. It owns the command, the value queue and the demand counter,
// and coordinates the consumer-side pull signals (Request, Cancel) with the
// transport-side push signals (OnNext, all-data-read, error) arriving on
// the decode goroutine. No locks are held across transitions; every event
// either wins its CAS and performs the attached side effects or loses to a
// concurrent transition and backs off.
type redisSubscription struct {
	id       xid.ID
	logs     Logs
	trace    bool
	events   *Eventer
	conn     Connection
	command  Command
	dissolve bool

	cell        int32
	gate        DispatchGate
	demand      DemandCounter
	queue       *ValueQueue
	allDataRead AtomicBool

	subCommand *subscriptionCommand

	// subscriber is written once during the UNSUBSCRIBED to NO_DEMAND
	// transition, before any delivery can start.
	subscriber Subscriber
}

func newRedisSubscription(conn Connection, command Command, dissolve bool, queue *ValueQueue, logs Logs, events *Eventer) *redisSubscription {
	rs := &redisSubscription{
		id:       xid.New(),
		logs:     logs,
		events:   events,
		conn:     conn,
		command:  command,
		dissolve: dissolve,
		queue:    queue,
	}

	if _, ok := logs.(DrainLog); !ok {
		rs.trace = true
	}

	rs.subCommand = newSubscriptionCommand(command, rs, dissolve)

	if output, ok := command.Output().(StreamingOutput); ok {
		if tc, isTx := conn.(TransactionalConnection); isTx && tc.InTransaction() {
			output.SetSink(newCompositeSink(rs, output.Sink()))
		} else {
			output.SetSink(rs)
		}
	}

	return rs
}

// subscribe attaches the subscriber and notifies it of its subscription.
// Attaching twice to the same subscription is a contract violation
// reported synchronously.
func (rs *redisSubscription) subscribe(subscriber Subscriber) error {
	if subscriber == nil {
		return errors.WrapOnly(ErrNilSubscriber)
	}

	if !rs.changeState(stateUnsubscribed, stateNoDemand) {
		if rs.state() == stateCompleted {
			return errors.WrapOnly(ErrSubscriptionCompleted)
		}
		return errors.Wrap(ErrAlreadySubscribed, "state %s", rs.state())
	}

	rs.subscriber = subscriber
	if rs.events != nil {
		rs.events.Publish(SubscriptionCreated{ID: rs.id.String()})
	}

	subscriber.OnSubscribe(rs)
	return nil
}

// Request signals demand for n more values. The first demand signal sends
// the command to the connection through the dispatch gate.
func (rs *redisSubscription) Request(n int64) {
	if rs.trace {
		LogMsg("subscription request").String("id", rs.id.String()).String("state", rs.state().String()).Int64("n", n).Write(DEBUG, rs.logs)
	}

	if n <= 0 {
		rs.OnError(errors.Wrap(ErrBadDemand, "requested %d", n))
		return
	}

	switch rs.state() {
	case stateNoDemand:
		rs.demand.Add(n)
		if rs.changeState(stateNoDemand, stateDemand) {
			if err := rs.checkCommandDispatch(); err != nil {
				rs.OnError(errors.Wrap(err, "command dispatch failed"))
				return
			}
			rs.checkOnDataAvailable()
		}
	case stateDemand, stateReading:
		rs.demand.Add(n)
	case stateCompleted:
		// terminal, demand is moot.
	default:
		// not reachable through a handle handed out by OnSubscribe; the
		// handle does not escape before subscribe installs the state.
		LogMsg("request before subscribe").String("id", rs.id.String()).Write(WARN, rs.logs)
	}
}

// Cancel terminates the subscription, cancels the underlying command and
// drains the flow-control source so the upstream decoder is not left
// blocked. Cancel is idempotent and produces no terminal notification.
func (rs *redisSubscription) Cancel() {
	if rs.trace {
		LogMsg("subscription cancel").String("id", rs.id.String()).String("state", rs.state().String()).Write(DEBUG, rs.logs)
	}

	for {
		state := rs.state()
		if state == stateCompleted {
			return
		}
		if rs.changeState(state, stateCompleted) {
			rs.subCommand.Cancel()
			rs.readData()
			if rs.events != nil {
				rs.events.Publish(SubscriptionCompleted{ID: rs.id.String()})
			}
			return
		}
	}
}

// OnNext buffers a value pushed by the decoding output. Implements Sink.
func (rs *redisSubscription) OnNext(value interface{}) {
	if value == nil {
		return
	}

	if rs.state() == stateCompleted {
		return
	}

	if err := rs.queue.Push(value); err != nil {
		rs.OnError(errors.Wrap(err, "failed to buffer value"))
		return
	}

	rs.onDataAvailable()
}

// OnError moves the subscription to its terminal state and notifies the
// subscriber of the failure exactly once. Once terminal, further error
// signals are suppressed.
func (rs *redisSubscription) OnError(err error) {
	if rs.trace {
		LogMsg("subscription error").String("id", rs.id.String()).String("state", rs.state().String()).Error("error", err).Write(ERROR, rs.logs)
	}

	for {
		state := rs.state()
		if state == stateCompleted {
			return
		}
		if rs.changeState(state, stateCompleted) {
			rs.readData()
			if rs.subscriber != nil {
				rs.subscriber.OnError(err)
			}
			if rs.events != nil {
				rs.events.Publish(SubscriptionCompleted{ID: rs.id.String(), Err: err})
			}
			return
		}
	}
}

// onAllDataRead marks that the command produced its last value. If the
// queue is already drained the subscription completes immediately,
// otherwise completion happens once draining catches up.
func (rs *redisSubscription) onAllDataRead() {
	rs.allDataRead.On()
	rs.tryComplete()
}

// onDataAvailable drains buffered values against outstanding demand. The
// DEMAND to READING guard admits a single draining goroutine; the loop
// re-checks for data arriving while reading instead of recursing so
// sustained back-to-back pushes cannot grow the stack.
func (rs *redisSubscription) onDataAvailable() {
	for {
		if !rs.changeState(stateDemand, stateReading) {
			return
		}

		demandRemains := rs.readAndPublish()

		if rs.queue.IsEmpty() && rs.allDataRead.IsTrue() {
			rs.completeFrom(stateReading)
			return
		}

		if !demandRemains {
			rs.changeState(stateReading, stateNoDemand)
			// the flag may have been set while reading; re-check now
			// that READING is released.
			rs.tryComplete()
			return
		}

		rs.changeState(stateReading, stateDemand)

		if !rs.queue.IsEmpty() {
			continue
		}
		rs.tryComplete()
		rs.readData()
		return
	}
}

// readAndPublish delivers queued values while demand lasts, consuming one
// unit of demand ahead of each delivery so the subscriber is never handed
// more values than it asked for. It reports whether demand remains.
func (rs *redisSubscription) readAndPublish() bool {
	for {
		if !rs.demand.TryConsumeOne() {
			return false
		}

		value, err := rs.queue.Pop()
		if err != nil {
			// nothing buffered, hand the consumed unit back.
			rs.demand.Add(1)
			return true
		}

		rs.subscriber.OnNext(value)
	}
}

// checkOnDataAvailable runs the opportunistic read path after demand
// arrives: drain if data is queued, complete if the command already
// finished, otherwise ask the source for more.
func (rs *redisSubscription) checkOnDataAvailable() {
	if !rs.queue.IsEmpty() {
		rs.onDataAvailable()
		return
	}

	if rs.allDataRead.IsTrue() {
		rs.tryComplete()
		return
	}

	if rs.demand.Get() > 0 {
		rs.readData()
	}
}

// tryComplete performs the transition to COMPLETED once all data was read
// and the queue is fully drained, notifying the subscriber of normal
// completion exactly once. A subscription observed in READING is left to
// its draining goroutine, which re-checks the flag on its way out, so the
// completion signal can never overtake a delivery in flight.
func (rs *redisSubscription) tryComplete() {
	if !rs.allDataRead.IsTrue() {
		return
	}

	for {
		state := rs.state()
		if state == stateCompleted || state == stateReading {
			return
		}
		if !rs.queue.IsEmpty() {
			return
		}
		if rs.completeFrom(state) {
			return
		}
	}
}

func (rs *redisSubscription) completeFrom(state subState) bool {
	if !rs.changeState(state, stateCompleted) {
		return false
	}

	rs.readData()
	if rs.subscriber != nil {
		rs.subscriber.OnComplete()
	}
	if rs.events != nil {
		rs.events.Publish(SubscriptionCompleted{ID: rs.id.String()})
	}
	return true
}

// checkCommandDispatch sends the command to the connection if this caller
// wins the dispatch gate. Losing callers no-op, keeping the command
// dispatched at most once however many request signals race.
func (rs *redisSubscription) checkCommandDispatch() error {
	if !rs.gate.TryDispatch() {
		return nil
	}

	if rs.trace {
		LogMsg("dispatching command").String("id", rs.id.String()).Write(DEBUG, rs.logs)
	}
	if rs.events != nil {
		rs.events.Publish(CommandDispatched{ID: rs.id.String()})
	}

	return rs.conn.Dispatch(rs.subCommand)
}

// readData asks the flow-control source, when one is registered, for more
// upstream production. Used both to resume a paused decoder and to drain
// it after a terminal transition. Best effort, errors never re-enter the
// subscription's error path.
func (rs *redisSubscription) readData() {
	if source := rs.subCommand.Source(); source != nil {
		source.RequestMore()
	}
}

func (rs *redisSubscription) state() subState {
	return subState(atomic.LoadInt32(&rs.cell))
}

func (rs *redisSubscription) changeState(from, to subState) bool {
	return atomic.CompareAndSwapInt32(&rs.cell, int32(from), int32(to))
}
