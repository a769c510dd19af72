package middleware

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/yourusername/ember/core"
)

// LoggerConfig defines configuration for the Logger fang.
type LoggerConfig struct {
	// Output is where logs are written. Default: os.Stdout.
	Output io.Writer

	// Format is "json" or "text". Default: "json".
	Format string

	// SkipPaths are paths excluded from logging (e.g. "/health", "/metrics").
	SkipPaths []string

	// TimeFormat is the timestamp layout for log entries. Default: time.RFC3339.
	TimeFormat string
}

// DefaultLoggerConfig returns the configuration Logger() uses.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Output:     os.Stdout,
		Format:     "json",
		TimeFormat: time.RFC3339,
	}
}

// LogEntry is one structured log line written by the Logger fang.
type LogEntry struct {
	Time       string  `json:"time"`
	Method     string  `json:"method"`
	Path       string  `json:"path"`
	Status     int     `json:"status"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// Logger returns a fang that writes one structured entry per request:
// method, path, status, duration, and response error (if any).
//
// Example:
//
//	app := ember.New()
//	app.Use(Logger())
//	app.Get("/users", getUsers)
//
// Output:
//
//	{"time":"2025-11-13T10:30:00Z","method":"GET","path":"/users","status":200,"duration_ms":15.2}
func Logger() core.Middleware {
	return LoggerWithConfig(DefaultLoggerConfig())
}

// LoggerWithConfig returns a Logger fang with custom configuration.
//
// Example:
//
//	app.Use(LoggerWithConfig(LoggerConfig{
//	    Format:    "text",
//	    SkipPaths: []string{"/health", "/metrics"},
//	}))
func LoggerWithConfig(config LoggerConfig) core.Middleware {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Format == "" {
		config.Format = "json"
	}
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}

	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}

	writeEntry := textWriter(config.Output)
	if config.Format == "json" {
		writeEntry = jsonWriter(config.Output)
	}

	return func(next core.Handler) core.Handler {
		return func(c *core.Context) error {
			if skip[c.Path()] {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.StatusCode()
			if status == 0 {
				status = 200
			}

			writeEntry(start.Format(config.TimeFormat), c.Method(), c.Path(), status, duration, err)
			return err
		}
	}
}

// logWriter writes one log entry; the two implementations below differ only
// in serialization, so LoggerWithConfig picks between them once per config
// instead of branching on config.Format every request.
type logWriter func(timestamp, method, path string, status int, duration time.Duration, err error)

func jsonWriter(w io.Writer) logWriter {
	enc := json.NewEncoder(w)
	return func(timestamp, method, path string, status int, duration time.Duration, err error) {
		entry := LogEntry{
			Time:       timestamp,
			Method:     method,
			Path:       path,
			Status:     status,
			DurationMS: float64(duration.Microseconds()) / 1000.0,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if encErr := enc.Encode(entry); encErr != nil {
			log.Printf("logger: failed to write entry: %v", encErr)
		}
	}
}

func textWriter(w io.Writer) logWriter {
	return func(_, method, path string, status int, duration time.Duration, err error) {
		var msg string
		if err != nil {
			msg = fmt.Sprintf("%s %s - %d - %v - ERROR: %v\n", method, path, status, duration, err)
		} else {
			msg = fmt.Sprintf("%s %s - %d - %v\n", method, path, status, duration)
		}
		if _, writeErr := w.Write([]byte(msg)); writeErr != nil {
			log.Printf("logger: failed to write entry: %v", writeErr)
		}
	}
}
