package logger

// NoOpLogger discards everything. Used as the default for components that
// haven't been handed a real logger (tests, library callers that don't
// care) — mirrors the teacher's own &core.NoOpLogger{} fallback pattern.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...interface{}) {}
func (n *NoOpLogger) Info(msg string, fields ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, fields ...interface{})  {}
func (n *NoOpLogger) Error(msg string, fields ...interface{}) {}
func (n *NoOpLogger) SetLevel(level string)                  {}
func (n *NoOpLogger) WithField(key string, value interface{}) Logger {
	return n
}
func (n *NoOpLogger) WithFields(fields map[string]interface{}) Logger {
	return n
}
func (n *NoOpLogger) With(fields ...Field) Logger {
	return n
}
