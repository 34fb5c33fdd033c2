package errors

import (
	"runtime"
	"strings"
	"time"
)

// Reporter receives structured failures as they are recorded. Lifecycle
// methods obtain their Reporter from the context they were invoked with;
// there is no process-wide default to read behind the caller's back.
type Reporter interface {
	// ReportBinding is called when a binding fails to resolve or convert.
	ReportBinding(err *BindingError)
	// ReportLifecycle is called when a user hook panics or errors.
	ReportLifecycle(err *LifecycleHandlerError)
	// ReportEvent is called when an event subscriber panics.
	ReportEvent(err *EventHandlingError)
}

// Collector is a Reporter that accumulates everything it receives. It is the
// building block for phase reports and the natural Reporter for tests.
type Collector struct {
	Bindings  []*BindingError
	Lifecycle []*LifecycleHandlerError
	Events    []*EventHandlingError
}

func (c *Collector) ReportBinding(err *BindingError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	c.Bindings = append(c.Bindings, err)
}

func (c *Collector) ReportLifecycle(err *LifecycleHandlerError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	c.Lifecycle = append(c.Lifecycle, err)
}

func (c *Collector) ReportEvent(err *EventHandlingError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	c.Events = append(c.Events, err)
}

// Empty reports whether nothing has been collected.
func (c *Collector) Empty() bool {
	return len(c.Bindings) == 0 && len(c.Lifecycle) == 0 && len(c.Events) == 0
}

// Tee fans a report out to several reporters, typically a Collector for the
// current phase plus a log reporter.
type Tee []Reporter

func (t Tee) ReportBinding(err *BindingError) {
	for _, r := range t {
		r.ReportBinding(err)
	}
}

func (t Tee) ReportLifecycle(err *LifecycleHandlerError) {
	for _, r := range t {
		r.ReportLifecycle(err)
	}
}

func (t Tee) ReportEvent(err *EventHandlingError) {
	for _, r := range t {
		r.ReportEvent(err)
	}
}

// Discard is a Reporter that drops everything.
var Discard Reporter = discard{}

type discard struct{}

func (discard) ReportBinding(*BindingError)           {}
func (discard) ReportLifecycle(*LifecycleHandlerError) {}
func (discard) ReportEvent(*EventHandlingError)        {}

// CaptureStack returns the current call stack as a string.
// It skips the first few frames to exclude the CaptureStack call itself.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}

// itoa converts an integer to a string without allocating.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := false
	if i < 0 {
		neg = true
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
