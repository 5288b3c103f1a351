package lettuce

import (
	"sync"
	"sync/atomic"

	"github.com/gokit/errors"
)

// ErrPushFailed is returned when a queue has reached its storage limit.
var ErrPushFailed = errors.New("failed to push into queue")

// ErrQueueEmpty is returned when a queue holds no pending values.
var ErrQueueEmpty = errors.New("queue is empty")

var nodePool = sync.Pool{New: func() interface{} {
	return new(node)
}}

// Strategy defines a int type to represent a giving drop strategy.
type Strategy int

// constants.
const (
	DropNew Strategy = iota
	DropOld
)

type node struct {
	value interface{}
	next  *node
	prev  *node
}

// ValueQueue defines a FIFO queue implementation safe for concurrent use
// across go-routines, holding values produced by a decoding command until
// they are delivered downstream. ValueQueue uses a lock to guarantee safe
// concurrent use and pools its nodes to limit allocation on the push path.
type ValueQueue struct {
	qm       sync.Mutex
	head     *node
	tail     *node
	capped   int
	total    int64
	strategy Strategy
}

// BoundedQueue returns a new instance of a bounded value queue. Values
// queue till the cap is reached, after which the strategy decides whether
// the new value is rejected or the oldest value is dropped to make space.
// A cap value of -1 means there is no maximum limit of values in queue.
func BoundedQueue(capped int, method Strategy) *ValueQueue {
	return &ValueQueue{
		capped:   capped,
		strategy: method,
	}
}

// UnboundedQueue returns a new instance of a unbounded value queue. Values
// will be queued endlessly.
func UnboundedQueue() *ValueQueue {
	return &ValueQueue{
		capped: -1,
	}
}

// Push adds the value to the back of the queue.
//
// Push can be safely called from multiple goroutines. If the queue is
// capped and full, DropNew rejects the value with ErrPushFailed and
// DropOld discards the front of the queue first.
func (vq *ValueQueue) Push(value interface{}) error {
	available := int(atomic.LoadInt64(&vq.total))
	if vq.capped != -1 && available >= vq.capped {
		switch vq.strategy {
		case DropNew:
			return errors.Wrap(ErrPushFailed, "queue is at cap %d", vq.capped)
		case DropOld:
			vq.Pop()
		}
	}

	atomic.AddInt64(&vq.total, 1)
	n := nodePool.Get().(*node)
	n.value = value

	vq.qm.Lock()
	if vq.head == nil && vq.tail == nil {
		vq.head, vq.tail = n, n
		vq.qm.Unlock()
		return nil
	}

	vq.tail.next = n
	n.prev = vq.tail
	vq.tail = n
	vq.qm.Unlock()
	return nil
}

// Pop removes the value from the front of the queue.
//
// Pop can be safely called from multiple goroutines.
func (vq *ValueQueue) Pop() (interface{}, error) {
	vq.qm.Lock()
	head := vq.head
	if head == nil {
		vq.qm.Unlock()
		return nil, errors.WrapOnly(ErrQueueEmpty)
	}

	atomic.AddInt64(&vq.total, -1)
	value := head.value

	vq.head = head.next
	if vq.tail == head {
		vq.tail = vq.head
	}

	head.next = nil
	head.prev = nil
	head.value = nil
	vq.qm.Unlock()

	nodePool.Put(head)
	return value, nil
}

// Clear resets and deletes all values pending within queue.
func (vq *ValueQueue) Clear() {
	vq.qm.Lock()
	vq.head = nil
	vq.tail = nil
	atomic.StoreInt64(&vq.total, 0)
	vq.qm.Unlock()
}

// Cap returns the maximum size of the queue, -1 if unbounded.
func (vq *ValueQueue) Cap() int {
	return vq.capped
}

// Total returns the count of values in the queue.
func (vq *ValueQueue) Total() int {
	return int(atomic.LoadInt64(&vq.total))
}

// IsEmpty returns true/false if the queue is empty.
func (vq *ValueQueue) IsEmpty() bool {
	vq.qm.Lock()
	empty := vq.head == nil && vq.tail == nil
	vq.qm.Unlock()
	return empty
}
