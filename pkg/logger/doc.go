// Package logger provides structured logging capabilities for the ACE cognitive orchestrator.
//
// This package offers a simple yet powerful logging interface that supports structured
// fields, multiple log levels, and contextual logging for better observability and debugging.
//
// # Logger Interface
//
// The Logger interface defines the contract for all logging implementations:
//
//	type Logger interface {
//	    Debug(msg string, fields ...interface{})
//	    Info(msg string, fields ...interface{})
//	    Warn(msg string, fields ...interface{})
//	    Error(msg string, fields ...interface{})
//	    SetLevel(level string)
//	    WithField(key string, value interface{}) Logger
//	    WithFields(fields map[string]interface{}) Logger
//	    With(fields ...Field) Logger
//	}
//
// # Log Levels
//
// Supported log levels in order of severity:
//   - DEBUG: Detailed information for debugging
//   - INFO: General informational messages
//   - WARN: Warning messages for potentially harmful situations
//   - ERROR: Error messages for serious problems
//
// # Structured Logging
//
// All log methods accept structured fields as alternating key/value
// arguments; a trailing key without a value is dropped:
//
//	log.Info("Processing request",
//	    "user_id", "123",
//	    "action", "create_order",
//	    "duration_ms", 145,
//	)
//
// # Contextual Logging
//
// Create child loggers with persistent fields:
//
//	requestLogger := log.With(
//	    logger.Field{Key: "request_id", Value: "abc-123"},
//	    logger.Field{Key: "user_id", Value: "456"},
//	)
//	
//	// All logs from requestLogger will include request_id and user_id
//	requestLogger.Info("Starting processing")
//	requestLogger.Info("Processing complete", "items_processed", 10)
//
// # Simple Logger Implementation
//
// The package provides SimpleLogger:
//   - Plain-text lines of the form "[LEVEL] msg key=value ..."
//   - Written through the standard library's log package, which adds the
//     timestamp
//   - Configurable log level via SetLevel (starts at INFO)
//
// Fields are not sanitized, and there is no JSON output.
//
// # Configuration
//
// GetLogLevel returns the LOG_LEVEL environment variable, or "INFO" when
// it is unset. NewSimpleLogger does not read the environment; callers pass
// the level to SetLevel.
//
// # Integration
//
// runner.New, orchestrator.New, and resilience's CircuitBreakerConfig
// accept a Logger and fall back to NoOpLogger when none is given.
//
// # Best Practices
//
//   - Use appropriate log levels to control verbosity
//   - Include relevant context through structured fields
//   - Avoid logging sensitive information (passwords, tokens, PII)
//   - Use child loggers for request-scoped logging
//   - Keep log messages concise and actionable
package logger