package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/timeclock/internal/smoke"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "Base URL of the kiosk API")
		employee   = flag.String("employee", "987654321", "Employee id to log in as")
		position   = flag.String("position", "300", "Position number to punch against")
		tec        = flag.String("tec", "REG", "Time entry code sent with each punch")
		iterations = flag.Int("iterations", 1, "Number of visits to run")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Log file for run output (default: smoke_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every step")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	closeLog, err := smoke.SetupLogging(*logFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &smoke.Config{
		BaseURL:        *baseURL,
		EmployeeID:     *employee,
		PositionNumber: *position,
		TimeEntryCode:  *tec,
		Iterations:     *iterations,
		Timeout:        *timeout,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	if _, err := smoke.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
