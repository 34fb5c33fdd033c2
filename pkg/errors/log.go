package errors

import (
	"go.uber.org/zap"
)

// LogReporter is a Reporter that writes structured log entries via zap.
type LogReporter struct {
	// Logger receives the entries. A nil Logger drops everything.
	Logger *zap.Logger
	// Verbose includes captured stack traces in the output.
	Verbose bool
}

// NewLogReporter creates a LogReporter backed by the given logger.
func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{Logger: logger}
}

// ReportBinding logs a binding failure.
func (h *LogReporter) ReportBinding(err *BindingError) {
	if err == nil || h.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("target", err.Target),
		zap.String("property", err.Property),
		zap.Stringer("severity", err.Severity),
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	h.Logger.Warn("binding failure: "+err.Message, fields...)
}

// ReportLifecycle logs a lifecycle hook failure.
func (h *LogReporter) ReportLifecycle(err *LifecycleHandlerError) {
	if err == nil || h.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("component", err.Component),
		zap.String("phase", err.Phase),
	}
	if err.Recovered != nil {
		fields = append(fields, zap.Any("recovered", err.Recovered))
	}
	if err.Err != nil {
		fields = append(fields, zap.Error(err.Err))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.Logger.Error("lifecycle hook failure", fields...)
}

// ReportEvent logs an event handler failure.
func (h *LogReporter) ReportEvent(err *EventHandlingError) {
	if err == nil || h.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event_id", err.EventID.String()),
		zap.String("event_type", err.EventType),
		zap.String("handler", err.Handler),
		zap.String("subscription", err.Subscription.String()),
		zap.Any("recovered", err.Recovered),
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.Logger.Error("event handler failure", fields...)
}
