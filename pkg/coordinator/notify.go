package coordinator

import "log/slog"

// productName prefixes every notification title.
const productName = "ARTIFACTOR"

// Notifier surfaces user-visible notices with severity variants. Nothing
// here blocks: notifications are fire-and-forget.
type Notifier interface {
	Success(title, message string)
	Warning(title, message string)
	Error(title, message string)
}

// LogNotifier renders notifications through the structured logger, the
// closest console analogue of the host notification surface.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Success(title, message string) {
	n.Logger.Info(productName+": "+title, "detail", message, "severity", "success")
}

func (n *LogNotifier) Warning(title, message string) {
	n.Logger.Warn(productName+": "+title, "detail", message, "severity", "warning")
}

func (n *LogNotifier) Error(title, message string) {
	n.Logger.Error(productName+": "+title, "detail", message, "severity", "error")
}
