package logging

import (
	"github.com/rs/zerolog"
)

// RetryLogger adapts Logger to retryablehttp.LeveledLogger.
// Per-attempt chatter is kept at debug; retries surface as warnings.
type RetryLogger struct {
	L *Logger
}

func (r RetryLogger) Error(msg string, keysAndValues ...interface{}) {
	fields(r.L.Error(), keysAndValues).Msg(msg)
}

func (r RetryLogger) Info(msg string, keysAndValues ...interface{}) {
	fields(r.L.Debug(), keysAndValues).Msg(msg)
}

func (r RetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	fields(r.L.Debug(), keysAndValues).Msg(msg)
}

func (r RetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	fields(r.L.Warn(), keysAndValues).Msg(msg)
}

// fields attaches alternating key/value pairs to an event.
func fields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
