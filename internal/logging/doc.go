// Package logging provides structured logging for AdForge sessions.
// It wraps Go's log/slog package to produce JSON-formatted log entries
// with persistent attributes, so a session's debug log can be filtered
// by session id or stage after the fact.
//
// # Concurrency
//
// [Logger] is safe for concurrent use. Child loggers created with
// [Logger.WithSession], [Logger.WithStage], or [Logger.With] share the
// parent's underlying writer; the [RotatingWriter] type uses a mutex to
// protect file operations during rotation.
//
// # Usage
//
//	logger, err := logging.NewLoggerWithRotation(stateDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil { ... }
//	defer logger.Close()
//
//	sessionLogger := logger.WithSession(sess.ID)
//	sessionLogger.Info("session restored", "status", sess.Status)
package logging
