package errors

import (
	"fmt"
	"strings"
)

// EngineError is a failure reported by the engine itself: a non-zero status
// code from an exported entry point, translated from the engine's error
// buffer and its process-global last-failure state.
//
// Message is the formatted text the engine wrote into the call's error
// buffer. Short, Long, Explain and Trace carry the engine's structured
// failure fields when they were available; any of them may be empty.
type EngineError struct {
	Code    int32
	Message string
	Short   string
	Long    string
	Explain string
	Trace   string
}

// NewEngineError builds an EngineError, falling back to a generic message
// when the engine reported no detail at all.
func NewEngineError(code int32, message, short, long, explain, trace string) *EngineError {
	e := &EngineError{
		Code:    code,
		Message: message,
		Short:   short,
		Long:    long,
		Explain: explain,
		Trace:   trace,
	}
	if e.Message == "" && e.Short == "" && e.Long == "" {
		e.Message = fmt.Sprintf("engine call failed with status %d", code)
	}
	return e
}

func (e *EngineError) Error() string {
	var b strings.Builder
	b.WriteString("[engine] ")
	if e.Short != "" {
		b.WriteString(e.Short)
		if e.Message != "" && e.Message != e.Short {
			b.WriteString(": ")
		}
	}
	if e.Message != "" && e.Message != e.Short {
		// Error buffers can carry multi-line short+long text; keep the first
		// line for the summary.
		msg := e.Message
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		b.WriteString(msg)
	}
	fmt.Fprintf(&b, " (status %d)", e.Code)
	return b.String()
}

// Is reports whether target is also an EngineError
func (e *EngineError) Is(target error) bool {
	_, ok := target.(*EngineError)
	return ok
}
