// Package logger provides logging facilities for autopush.
//
// Two audiences are served by one Logger. The diagnostic log (Info, Warning,
// Error) is written through log/slog to a per-vault file when debug logging
// is enabled. Diagnostic adds a structured, file-only record with slog
// attributes; full git output goes there and never to the terminal. The user channel
// (InfoToUser, WarningToUser, Success, StatusMessage) always reaches the
// terminal and is what the console notifier uses for notices.
//
//	log := logger.New(cfg.Debug, cfg.LogFile, !cfg.Quiet)
//	defer log.Close()
//
//	log.Info("cycle %s started", id)
//	log.Diagnostic("auto commit cycle failed", "cycle", id, "step", "push", "error", err.Error())
//	log.Success("Auto commit pushed.")
//
// DefaultLogger is safe for concurrent use; timer ticks, signal-triggered
// cycles and the settings watcher all log through the same instance.
package logger
