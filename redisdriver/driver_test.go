package redisdriver_test

import (
	"testing"

	"github.com/gokit/errors"
	"github.com/stretchr/testify/require"

	lettuce "github.com/handsfreemc/lettuce-core"
	"github.com/handsfreemc/lettuce-core/redisdriver"
)

type fakeCommand struct{}

func (fakeCommand) Output() lettuce.CommandOutput    { return nil }
func (fakeCommand) Complete()                        {}
func (fakeCommand) Cancel()                          {}
func (fakeCommand) CompleteWithError(err error) bool { return false }
func (fakeCommand) Completed() bool                  { return false }

func TestConnRejectsForeignCommands(t *testing.T) {
	conn := redisdriver.NewConn(nil, nil)

	err := conn.Dispatch(fakeCommand{})
	require.Error(t, err)
	require.Contains(t, err.Error(), redisdriver.ErrUnsupportedCommand.Error())
}

func TestCmdLifecycle(t *testing.T) {
	cmd := redisdriver.NewCmd("GET", "user:1")

	require.Equal(t, "GET", cmd.Name())
	require.False(t, cmd.Completed())
	require.False(t, cmd.Output().IsStreaming())

	_, ok := cmd.Output().TakeResult()
	require.False(t, ok)

	cmd.Complete()
	require.True(t, cmd.Completed())
}

func TestCmdCompleteWithError(t *testing.T) {
	cmd := redisdriver.NewCmd("GET", "user:1")

	failure := errors.New("connection refused")
	require.True(t, cmd.CompleteWithError(failure))
	require.True(t, cmd.Completed())
	require.True(t, cmd.Output().HasError())
	require.Contains(t, cmd.Output().Err().Error(), "connection refused")

	// a second terminal signal is rejected.
	require.False(t, cmd.CompleteWithError(errors.New("late")))
}

func TestArrayCmdOutputIsCollection(t *testing.T) {
	cmd := redisdriver.NewArrayCmd("LRANGE", "queue", 0, -1)

	require.Equal(t, "LRANGE", cmd.Name())

	_, ok := cmd.Output().(lettuce.CollectionOutput)
	require.True(t, ok)
}

func TestScanCmdOutputIsStreaming(t *testing.T) {
	cmd := redisdriver.NewScanCmd("user:*", 100)

	require.Equal(t, "SCAN", cmd.Name())
	require.True(t, cmd.Output().IsStreaming())

	streaming, ok := cmd.Output().(lettuce.StreamingOutput)
	require.True(t, ok)
	require.Nil(t, streaming.Sink())

	sink := &countingSink{}
	streaming.SetSink(sink)
	require.Equal(t, sink, streaming.Sink())
}

type countingSink struct {
	seen int
}

func (c *countingSink) OnNext(interface{}) { c.seen++ }
