// Package redisdriver adapts a go-redis client to the lettuce connection
// and command interfaces. Commands dispatched through a Conn execute on
// their own goroutine and report their outcome back through the dispatched
// command's completion methods, which is how results reach the reactive
// layer's subscriptions.
package redisdriver

import (
	"github.com/go-redis/redis"
	"github.com/gokit/errors"

	lettuce "github.com/handsfreemc/lettuce-core"
)

// ErrUnsupportedCommand is returned when a dispatched command was not
// produced by this package.
var ErrUnsupportedCommand = errors.New("command is not executable by this connection")

// Executable is implemented by commands of this package. Execute runs the
// command against the client and completes or fails the dispatched command,
// which may wrap the receiver.
type Executable interface {
	Execute(client *redis.Client, dispatched lettuce.Command)
}

// Conn implements the lettuce Connection interface over a go-redis client.
type Conn struct {
	client *redis.Client
	logs   lettuce.Logs
}

// NewConn returns a connection backed by the provided client. A nil logs
// discards all log events.
func NewConn(client *redis.Client, logs lettuce.Logs) *Conn {
	if logs == nil {
		logs = lettuce.DrainLog{}
	}
	return &Conn{client: client, logs: logs}
}

// Dispatch hands the command to the transport for asynchronous execution.
// The command must unwrap to an Executable produced by this package.
func (c *Conn) Dispatch(command lettuce.Command) error {
	executable, ok := lettuce.UnwrapCommand(command).(Executable)
	if !ok {
		return errors.Wrap(ErrUnsupportedCommand, "%T", command)
	}

	lettuce.LogMsg("dispatching to redis").String("command", commandName(executable)).Write(lettuce.DEBUG, c.logs)

	go executable.Execute(c.client, command)
	return nil
}

func commandName(executable Executable) string {
	type named interface {
		Name() string
	}
	if n, ok := executable.(named); ok {
		return n.Name()
	}
	return "unknown"
}
