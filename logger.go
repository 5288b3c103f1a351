package lettuce

import (
	"strconv"
	"sync"
	"sync/atomic"
)

//***************************************************************************
// Logs
//***************************************************************************

// Level defines different level warnings for giving log events.
type Level uint8

// constants of log levels this package respect.
// They are capitalize to ensure no naming conflict.
const (
	INFO Level = 1 << iota
	DEBUG
	WARN
	ERROR
	PANIC
)

// String implements the Stringer interface.
func (l Level) String() string {
	switch l {
	case INFO:
		return "INFO"
	case ERROR:
		return "ERROR"
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case PANIC:
		return "PANIC"
	}
	return "UNKNOWN"
}

// LogMessage defines an interface which exposes a method for retrieving
// log details for giving log item.
type LogMessage interface {
	Message() string
}

// Message implements the LogMessage interface for a plain string.
type Message string

// Message returns the string content of the message.
func (m Message) Message() string {
	return string(m)
}

// Logs defines a acceptable logging interface which all elements of this
// package will respect and use to deliver logs for different parts and ops,
// this frees this package from specifying or locking a giving implementation
// and contaminating import paths. Implement this and pass in to elements
// that provide for it.
type Logs interface {
	Emit(Level, LogMessage)
}

// DrainLog implements the Logs interface and discards all log events.
type DrainLog struct{}

// Emit does nothing with provided arguments, it implements
// the Logs Emit method.
func (DrainLog) Emit(_ Level, _ LogMessage) {}

//***************************************************************************
// LogEvent
//***************************************************************************

var (
	comma        = []byte(", ")
	colon        = []byte(": ")
	openBlock    = []byte("{")
	closingBlock = []byte("}")
	doubleQuote  = []byte("\"")
	logEventPool = sync.Pool{
		New: func() interface{} {
			return &LogEvent{content: make([]byte, 0, 218), r: 1}
		},
	}
)

// LogMsg requests allocation for a *LogEvent from the internal pool
// returning a *LogEvent for use which must have it's Write() method called
// once done.
func LogMsg(message string) *LogEvent {
	event := logEventPool.Get().(*LogEvent)
	event.reset()
	event.addQuoted("message", message)
	event.endEntry()
	return event
}

// LogEvent implements a efficient near zero-allocation generator of a
// non-strict json format transforming log key-value pairs into a
// LogMessage.
//
// Each *LogEvent is retrieved from a pool and will panic if used after
// release/write.
type LogEvent struct {
	r       uint32
	content []byte
}

// String adds a field name with string value.
func (l *LogEvent) String(name string, value string) *LogEvent {
	l.addQuoted(name, value)
	l.endEntry()
	return l
}

// Bool adds a field name with bool value.
func (l *LogEvent) Bool(name string, value bool) *LogEvent {
	l.addPlain(name, strconv.FormatBool(value))
	l.endEntry()
	return l
}

// Int adds a field name with int value.
func (l *LogEvent) Int(name string, value int) *LogEvent {
	l.addPlain(name, strconv.Itoa(value))
	l.endEntry()
	return l
}

// Int64 adds a field name with int64 value.
func (l *LogEvent) Int64(name string, value int64) *LogEvent {
	l.addPlain(name, strconv.FormatInt(value, 10))
	l.endEntry()
	return l
}

// Error adds a field name with the text of err, skipping the field if err
// is nil.
func (l *LogEvent) Error(name string, err error) *LogEvent {
	if err == nil {
		return l
	}
	l.addQuoted(name, err.Error())
	l.endEntry()
	return l
}

// Message returns the generated JSON of giving *LogEvent and releases the
// event back to its pool.
func (l *LogEvent) Message() string {
	if l.released() {
		panic("Re-using released *LogEvent")
	}

	// remove last comma and space
	l.reduce(len(comma))
	l.content = append(l.content, closingBlock...)

	content := make([]byte, len(l.content))
	copy(content, l.content)

	l.release()
	return string(content)
}

// Write delivers giving log event as a generated message.
func (l *LogEvent) Write(ll Level, lg Logs) {
	lg.Emit(ll, Message(l.Message()))
}

func (l *LogEvent) reset() {
	atomic.StoreUint32(&l.r, 1)
	l.content = append(l.content, openBlock...)
}

func (l *LogEvent) reduce(d int) {
	rem := len(l.content) - d
	if rem < 0 {
		rem = 0
	}
	l.content = l.content[:rem]
}

func (l *LogEvent) released() bool {
	return atomic.LoadUint32(&l.r) == 0
}

func (l *LogEvent) release() {
	atomic.StoreUint32(&l.r, 0)
	l.content = l.content[:0]
	logEventPool.Put(l)
}

func (l *LogEvent) addQuoted(k string, v string) {
	l.addKey(k)
	l.content = append(l.content, doubleQuote...)
	l.content = appendEscaped(l.content, v)
	l.content = append(l.content, doubleQuote...)
}

// appendEscaped writes v with quotes, backslashes and line breaks escaped
// so a quoted value never breaks the generated line.
func appendEscaped(content []byte, v string) []byte {
	for i := 0; i < len(v); i++ {
		switch c := v[i]; c {
		case '"', '\\':
			content = append(content, '\\', c)
		case '\n':
			content = append(content, '\\', 'n')
		case '\r':
			content = append(content, '\\', 'r')
		case '\t':
			content = append(content, '\\', 't')
		default:
			content = append(content, c)
		}
	}
	return content
}

func (l *LogEvent) addPlain(k string, v string) {
	l.addKey(k)
	l.content = append(l.content, v...)
}

func (l *LogEvent) addKey(k string) {
	if l.released() {
		panic("Re-using released *LogEvent")
	}

	l.content = append(l.content, doubleQuote...)
	l.content = append(l.content, k...)
	l.content = append(l.content, doubleQuote...)
	l.content = append(l.content, colon...)
}

func (l *LogEvent) endEntry() {
	l.content = append(l.content, comma...)
}
