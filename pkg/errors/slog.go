package errors

import (
	"context"
	"log/slog"
)

// SlogHandler forwards reports to a structured logger. Hosts that already
// log through log/slog install it with SetHandler(&SlogHandler{Logger: l}).
type SlogHandler struct {
	Logger *slog.Logger
}

func (h *SlogHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// HandleError logs a UIError at warn level for misuse, error otherwise.
func (h *SlogHandler) HandleError(err *UIError) {
	if err == nil {
		return
	}
	level := slog.LevelError
	if err.Kind.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("op", err.Op),
		slog.String("kind", err.Kind.String()),
	}
	if err.Panel != "" {
		attrs = append(attrs, slog.String("panel", err.Panel))
	}
	if err.Err != nil {
		attrs = append(attrs, slog.String("error", err.Err.Error()))
	}
	h.logger().LogAttrs(context.Background(), level, "panelkit "+err.Kind.String(), attrs...)
}

// HandlePanic logs a PanicError at error level.
func (h *SlogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	h.logger().LogAttrs(context.Background(), slog.LevelError, "panelkit panic",
		slog.String("op", err.Op),
		slog.Any("value", err.Value),
	)
}
