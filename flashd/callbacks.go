package flashd

// Progress contains information about a running Write operation.
// Passed to ProgressCallback after each programmed page.
type Progress struct {
	// Page is the bank-relative page number that was just programmed
	Page uint32

	// PagesDone is the number of pages programmed so far
	PagesDone int

	// TotalPages is the total number of pages the operation spans
	TotalPages int

	// BytesWritten is the number of caller bytes committed so far
	BytesWritten int

	// TotalBytes is the total number of caller bytes to write
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64
}

// ProgressCallback is called after each programmed page during Write.
// Implementations should return quickly; the flash operation blocks while
// the callback runs.
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// driver. It allows integration with any logging framework.
//
// Example with the standard log package:
//
//	type StdLogger struct{}
//	func (l StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	drv, err := flashd.New(bus, geo, flashd.WithLogger(StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
