package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/ctfboard/internal/smoketest"
)

const defaultTestTimeout = 5 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		workers  = flag.Int("workers", smoketest.DefaultWorkers, "Concurrent page fetchers per view")
		pageSize = flag.Int("page-size", smoketest.DefaultPageSize, "Rows requested per page")
		window   = flag.Duration("window", smoketest.DefaultEventWindow, "Expected trailing window of the CTF rankings")
		timeout  = flag.Duration("timeout", smoketest.DefaultTimeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Log file for test output (default: smoke_test_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log every fetched page")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoketest.ShowHelp()
		return
	}

	closer, err := smoketest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	err = run(&smoketest.Config{
		BaseURL:     *baseURL,
		Workers:     *workers,
		PageSize:    *pageSize,
		Timeout:     *timeout,
		EventWindow: *window,
		Verbose:     *verbose,
	})
	_ = closer.Close()
	if err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(cfg *smoketest.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()
	_, err := smoketest.Run(ctx, cfg)
	return err
}
