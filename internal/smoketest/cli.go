package smoketest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/ctfboard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both stdout and a file. If logFile is
// empty, a timestamped filename is generated. The returned closer closes
// the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "smoke_test_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the smoke test tool.
func ShowHelp() {
	os.Stdout.WriteString(`ctfboard Smoke Test
===================

Crawls every page of the team, CTF and university rankings of a running
ctfboard server and verifies ordering, coverage, exclusions and pagination.

Usage:
  go run ./cmd/smoke-test [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -workers int
        Concurrent page fetchers per view (default 4)
  -page-size int
        Rows requested per page (default 50)
  -window duration
        Expected trailing window of the CTF rankings (default 8760h)
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file for test output (default: smoke_test_TIMESTAMP.log)
  -verbose
        Log every fetched page
  -help
        Show this help message

Examples:
  go run ./cmd/smoke-test -url http://localhost:8080 -page-size 7
`)
}
