package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

var (
	logger  = zerolog.Nop()
	writer  diode.Writer
	logFile *os.File
)

// InitLogger initializes the debug logger to write to a dated file in dir.
// The terminal UI owns stdout, so nothing is ever logged there.
func InitLogger(dir string, debug bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, fmt.Sprintf("persona-chat-debug-%s.log", time.Now().Format("2006-01-02")))

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	// Non-blocking ring buffer so slow disks never stall the UI loop
	writer = diode.NewWriter(f, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(f, "logger dropped %d messages\n", missed)
	})

	setOutput(writer, debug)
	logger.Info().Msg("=== persona-chat log started ===")

	return nil
}

func setOutput(out io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: time.DateTime,
		PartsOrder: []string{
			zerolog.LevelFieldName,
			zerolog.TimestampFieldName,
			zerolog.MessageFieldName,
		},
	}

	logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Logger returns the structured logger. It is a no-op logger until InitLogger succeeds.
func Logger() *zerolog.Logger {
	return &logger
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	logger.Info().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	logger.Error().Msgf(format, v...)
}

// Close flushes and closes the log file
func Close() {
	if logFile == nil {
		return
	}
	logger.Info().Msg("=== persona-chat log ended ===")
	writer.Close()
	logger = zerolog.Nop()
	logFile = nil
}
