// Package main is the entry point for ratepivot.
//
// By default it reads an exchangeratesapi-style history document from stdin
// and writes per-currency price series to stdout:
//
//	curl 'https://api.exchangeratesapi.io/history?start_at=2019-01-01&end_at=2019-02-28&symbols=BRL,EUR&base=USD' |
//	    ratepivot --max-date 2019-03-01
//
// With --serve it exposes the same transformation as POST /pivot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/damon-houk/ratepivot/internal/application/service"
	"github.com/damon-houk/ratepivot/internal/apperrors"
	"github.com/damon-houk/ratepivot/internal/config"
	"github.com/damon-houk/ratepivot/internal/infrastructure/cli"
	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit status
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, config.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "ratepivot: %v\n", err)
		return apperrors.ExitCode(err)
	}

	if cfg.ShowVersion {
		printVersion(stdout)
		return 0
	}

	log := initLogger(cfg, stderr)
	defer func() { _ = log.Sync() }()

	if cfg.Serve {
		if err := serve(cfg, log); err != nil {
			log.Error("Server failed", map[string]interface{}{"error": err.Error()})
			fmt.Fprintf(stderr, "ratepivot: %v\n", err)
			return 1
		}
		return 0
	}

	runner := cli.NewRunner(service.NewPivotService(nil, nil, log), log)
	if err := runner.Run(context.Background(), stdin, stdout, cfg.MaxDate); err != nil {
		fmt.Fprintf(stderr, "ratepivot: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return 0
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ratepivot version %s\n", version)
	fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// initLogger builds the zap-backed logger and makes it the default.
func initLogger(cfg *config.Config, stderr io.Writer) logger.Logger {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logger.InfoLevel
	}

	log := logger.NewZapLogger(stderr, level, logger.Format(cfg.LogFormat))
	logger.SetDefaultLogger(log)
	return log
}
