package lettuce_test

import (
	"sync"
	"testing"

	"github.com/gokit/errors"
	"github.com/stretchr/testify/require"

	lettuce "github.com/handsfreemc/lettuce-core"
)

type captureLog struct {
	mu      sync.Mutex
	entries []string
	levels  []lettuce.Level
}

func (c *captureLog) Emit(level lettuce.Level, message lettuce.LogMessage) {
	c.mu.Lock()
	c.levels = append(c.levels, level)
	c.entries = append(c.entries, message.Message())
	c.mu.Unlock()
}

func (c *captureLog) Entries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]string, len(c.entries))
	copy(entries, c.entries)
	return entries
}

func TestLogEventGeneratesJSON(t *testing.T) {
	message := lettuce.LogMsg("command dispatched").
		String("id", "abc").
		Int64("demand", 42).
		Bool("streaming", true).
		Message()

	require.Equal(t, `{"message": "command dispatched", "id": "abc", "demand": 42, "streaming": true}`, message)
}

func TestLogEventErrorField(t *testing.T) {
	message := lettuce.LogMsg("failed").
		Error("error", errors.New("boom")).
		Error("skipped", nil).
		Message()

	require.Contains(t, message, `"error": "`)
	require.Contains(t, message, "boom")
	require.NotContains(t, message, "skipped")

	// the rendered error spans several lines; the generated entry
	// must still be a single line.
	require.NotContains(t, message, "\n")
}

func TestLogEventEscapesQuotedValues(t *testing.T) {
	message := lettuce.LogMsg(`say "hi"`).
		String("path", "a\nb\tc").
		Message()

	require.Equal(t, `{"message": "say \"hi\"", "path": "a\nb\tc"}`, message)
}

func TestLogEventWriteEmits(t *testing.T) {
	logs := &captureLog{}
	lettuce.LogMsg("hello").String("a", "b").Write(lettuce.DEBUG, logs)

	entries := logs.Entries()
	require.Len(t, entries, 1)
	require.Contains(t, entries[0], `"message": "hello"`)
	require.Equal(t, lettuce.DEBUG, logs.levels[0])
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "INFO", lettuce.INFO.String())
	require.Equal(t, "DEBUG", lettuce.DEBUG.String())
	require.Equal(t, "WARN", lettuce.WARN.String())
	require.Equal(t, "ERROR", lettuce.ERROR.String())
	require.Equal(t, "PANIC", lettuce.PANIC.String())
}

func TestSubscriptionEmitsTraceLogs(t *testing.T) {
	logs := &captureLog{}
	conn := &mockConnection{}
	out := &mockStreamOutput{}
	pub := lettuce.NewPublisher(&mockCommand{output: out}, conn, false, lettuce.WithLogs(logs))

	sub := &recordingSubscriber{requestOnSubscribe: 1}
	require.NoError(t, pub.Subscribe(sub))
	conn.last().Complete()

	require.NotEmpty(t, logs.Entries())
}
