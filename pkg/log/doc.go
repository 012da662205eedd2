// Package log provides the logging abstraction used by liveagent components.
//
// Components log through the [Logger] interface so the reload engine never
// depends on a concrete logging library. A zerolog adapter and a no-op
// logger are provided.
//
// # Usage
//
// Use the zerolog adapter:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	reloadLog := logger.With(log.String("component", "reload"))
//
// Or discard everything in tests:
//
//	logger := log.NewNoopLogger()
//
// # Custom Loggers
//
// Implement [Logger] to plug in another library:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field)  { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field)  { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) With(fields ...log.Field) log.Logger   { ... }
package log
