// Package logging provides concrete implementations of the nutriload.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Human-readable progress lines on stderr, prefixed with a clock time
//   - ZapLogger: Structured JSON lines built on go.uber.org/zap
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
