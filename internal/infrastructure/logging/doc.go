// Package logging builds the zap loggers used by every component.
//
// Production logs are JSON with millisecond durations; development logs are
// colored console lines at debug level. Components receive a named child
// through Logger.Component and log finished runs with RunFields.
//
//	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	runs := testrun.NewManager(pool, 500, logger.Component("runs"))
package logging
