package redisdriver

import (
	"github.com/go-redis/redis"
	"github.com/gokit/errors"

	lettuce "github.com/handsfreemc/lettuce-core"
)

// ErrScanFailed wraps cursor iteration failures of a ScanCmd.
var ErrScanFailed = errors.New("scan iteration failed")

// baseCmd carries the lifecycle flags shared by the commands of this
// package.
type baseCmd struct {
	cancelled lettuce.AtomicBool
	done      lettuce.AtomicBool
}

// Complete marks the command done.
func (b *baseCmd) Complete() {
	b.done.On()
}

// Cancel marks the command cancelled. A cancelled command's Execute stops
// at its next checkpoint without completing.
func (b *baseCmd) Cancel() {
	b.cancelled.On()
}

// Completed reports whether the command finished.
func (b *baseCmd) Completed() bool {
	return b.done.IsTrue()
}

// Cmd is a single redis command whose reply arrives as one batch value at
// completion.
type Cmd struct {
	baseCmd
	name string
	args []interface{}
	out  *BatchOutput
}

// NewCmd returns a command executing the provided redis command line, for
// example NewCmd("GET", "user:1").
func NewCmd(args ...interface{}) *Cmd {
	return &Cmd{
		name: argName(args),
		args: args,
		out:  &BatchOutput{},
	}
}

// Name returns the redis command name.
func (c *Cmd) Name() string { return c.name }

// Output returns the command's batch output.
func (c *Cmd) Output() lettuce.CommandOutput { return c.out }

// CompleteWithError records the failure on the command's output.
func (c *Cmd) CompleteWithError(err error) bool {
	if c.done.IsTrue() {
		return false
	}
	c.out.setError(err)
	c.done.On()
	return true
}

// Execute runs the command line through the client and completes the
// dispatched command with the reply.
func (c *Cmd) Execute(client *redis.Client, dispatched lettuce.Command) {
	if c.cancelled.IsTrue() {
		return
	}

	reply, err := client.Do(c.args...).Result()
	if err != nil && err != redis.Nil {
		c.out.setError(err)
		dispatched.Complete()
		return
	}
	if err != redis.Nil {
		c.out.setValue(reply)
	}
	dispatched.Complete()
}

// ArrayCmd is a redis command whose multi-bulk reply arrives as an ordered
// collection at completion, for example LRANGE or SMEMBERS. Its output can
// be dissolved into per-element deliveries by the reactive layer.
type ArrayCmd struct {
	baseCmd
	name string
	args []interface{}
	out  *ArrayOutput
}

// NewArrayCmd returns a command executing the provided redis command line
// and collecting its multi-bulk reply.
func NewArrayCmd(args ...interface{}) *ArrayCmd {
	return &ArrayCmd{
		name: argName(args),
		args: args,
		out:  &ArrayOutput{},
	}
}

// Name returns the redis command name.
func (c *ArrayCmd) Name() string { return c.name }

// Output returns the command's collection output.
func (c *ArrayCmd) Output() lettuce.CommandOutput { return c.out }

// CompleteWithError records the failure on the command's output.
func (c *ArrayCmd) CompleteWithError(err error) bool {
	if c.done.IsTrue() {
		return false
	}
	c.out.setError(err)
	c.done.On()
	return true
}

// Execute runs the command line through the client and completes the
// dispatched command with the reply elements.
func (c *ArrayCmd) Execute(client *redis.Client, dispatched lettuce.Command) {
	if c.cancelled.IsTrue() {
		return
	}

	reply, err := client.Do(c.args...).Result()
	if err != nil && err != redis.Nil {
		c.out.setError(err)
		dispatched.Complete()
		return
	}

	switch elements := reply.(type) {
	case []interface{}:
		c.out.setElements(elements)
	case nil:
	default:
		c.out.setElements([]interface{}{reply})
	}
	dispatched.Complete()
}

// ScanCmd streams keys from SCAN cursor iteration, pushing each key to the
// output's sink as it is decoded. Iteration is paced by downstream demand:
// when the dispatched command reports no demand, the cursor pauses until
// the consumer side asks for more through the registered flow-control
// source.
type ScanCmd struct {
	baseCmd
	match string
	count int64
	out   *StreamOutput
}

// NewScanCmd returns a command streaming all keys matching the provided
// pattern, fetching count keys per cursor round trip.
func NewScanCmd(match string, count int64) *ScanCmd {
	return &ScanCmd{
		match: match,
		count: count,
		out:   &StreamOutput{},
	}
}

// Name returns the redis command name.
func (c *ScanCmd) Name() string { return "SCAN" }

// Output returns the command's streaming output.
func (c *ScanCmd) Output() lettuce.CommandOutput { return c.out }

// CompleteWithError records the failure on the command's output.
func (c *ScanCmd) CompleteWithError(err error) bool {
	if c.done.IsTrue() {
		return false
	}
	c.out.setError(err)
	c.done.On()
	return true
}

// Execute iterates the SCAN cursor, pushing every key through the stream
// output and completing the dispatched command once the cursor is
// exhausted.
func (c *ScanCmd) Execute(client *redis.Client, dispatched lettuce.Command) {
	source := newScanSource()
	aware, demandAware := dispatched.(lettuce.DemandAware)
	if demandAware {
		aware.SetSource(source)
		defer aware.RemoveSource()
	}

	var cursor uint64
	for {
		if c.cancelled.IsTrue() {
			return
		}

		keys, next, err := client.Scan(cursor, c.match, c.count).Result()
		if err != nil {
			dispatched.CompleteWithError(errors.Wrap(ErrScanFailed, "cursor %d: %s", cursor, err))
			return
		}

		for _, key := range keys {
			c.out.push(key)
		}

		if next == 0 {
			break
		}
		cursor = next

		// pause decoding while the consumer is behind; a terminal
		// transition also nudges the source so the cursor never
		// stays blocked.
		if demandAware && !aware.HasDemand() {
			source.await()
			if c.cancelled.IsTrue() || c.done.IsTrue() {
				return
			}
		}
	}

	dispatched.Complete()
}

// scanSource resumes a paused SCAN iteration when the consumer side asks
// for more production. Implements the lettuce Source interface.
type scanSource struct {
	more chan struct{}
}

func newScanSource() *scanSource {
	return &scanSource{more: make(chan struct{}, 1)}
}

// RequestMore nudges the iteration goroutine without blocking the caller.
func (s *scanSource) RequestMore() {
	select {
	case s.more <- struct{}{}:
	default:
	}
}

func (s *scanSource) await() {
	<-s.more
}

func argName(args []interface{}) string {
	if len(args) == 0 {
		return "unknown"
	}
	if name, ok := args[0].(string); ok {
		return name
	}
	return "unknown"
}
