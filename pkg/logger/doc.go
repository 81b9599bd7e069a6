// Package logger builds the *slog.Logger shared by the notification client
// packages and exposes attribute helpers so every component logs the same
// keys for the same things.
//
// New assembles a text or JSON handler from Option values and wraps it with
// LogHandlerDecorator, which injects attributes pulled from context.Context
// on every record.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "notifyctl"),
//	    logger.WithOutput(os.Stderr),
//	)
//	logger.SetAsDefault(log)
//
//	log.WarnContext(ctx, "reconnect scheduled",
//	    logger.Component("realtime"),
//	    logger.Attempt(2),
//	    logger.Delay(4*time.Second),
//	)
//
// # Environments
//
// WithEnvironment maps "production"/"prod" to JSON at INFO, "staging"/"stage"
// to JSON at INFO and everything else to text at DEBUG.
//
// Error and Errors return an empty slog.Attr for nil errors, so callers can
// pass them unconditionally.
package logger
