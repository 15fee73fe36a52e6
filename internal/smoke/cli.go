package smoke

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/okian/timeclock/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends the run log to both stdout and a file. If logFile is
// empty, a timestamped filename is generated.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "smoke_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	h := slog.NewJSONHandler(io.MultiWriter(os.Stdout, file), &slog.HandlerOptions{Level: logger.Level()})
	if err := logger.InitWithHandler(h); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Time Clock Kiosk Smoke Test
===========================

Walks a running kiosk through full employee visits: login, history,
calendar, a punch in and out, and logout.

Usage:
  go run ./cmd/kiosk-smoke [options]

Options:
  -url string
        Base URL of the kiosk API (default "http://localhost:8080")
  -employee string
        Employee id to log in as (default "987654321")
  -position string
        Position number to punch against (default "300")
  -tec string
        Time entry code sent with each punch (default "REG")
  -iterations int
        Number of visits to run (default 1)
  -timeout duration
        HTTP request timeout (default 15s)
  -log string
        Log file for run output (default: smoke_TIMESTAMP.log)
  -verbose
        Log every step
  -help
        Show this help message

Examples:
  # Against the fake backend started with go run ./cmd/fake-upstream
  go run ./cmd/kiosk-smoke

  # An employee with several time entry codes
  go run ./cmd/kiosk-smoke -employee 123456789 -position 100 -tec OT
`)
}
