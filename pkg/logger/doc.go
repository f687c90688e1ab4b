// Package logger builds *slog.Logger instances for the service.
//
// New takes functional options for format, level, static attributes and
// context extractors. Extractors run on every record, so request-scoped
// values such as the request ID are attached without threading a logger
// through every call:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "subsync"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "webhook received", logger.Provider("stripe"))
//
// NewFromConfig does the same from APP_ENV, SERVICE_NAME, LOG_LEVEL and
// LOG_FORMAT. The attribute helpers in attr.go keep key names consistent
// across packages.
package logger
