package flash

import "time"

// Progress phases.
const (
	PhaseProgramming = "programming"
	PhaseComplete    = "complete"
)

// Progress contains information about a write in progress.
// Passed to ProgressCallback after every page program.
type Progress struct {
	// Phase describes the current operation phase:
	//   "programming" - Programming pages
	//   "complete"    - Write completed successfully
	Phase string

	// Address is the flash address of the page just programmed
	Address uint32

	// CurrentChunk is the number of page programs completed
	CurrentChunk int

	// TotalChunks is the number of page programs the write needs
	TotalChunks int

	// BytesWritten is the total number of bytes written so far
	BytesWritten int

	// TotalBytes is the length of the write
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the write started
	ElapsedTime time.Duration
}

// ProgressCallback is called during writes to report progress.
// Implementations should return quickly; the chip sits idle meanwhile.
//
// Example:
//
//	dev := flash.New(bus,
//	    flash.WithProgressCallback(func(p flash.Progress) {
//	        fmt.Printf("[%s] %.1f%% - page %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentChunk, p.TotalChunks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the device.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	dev := flash.New(bus, flash.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
