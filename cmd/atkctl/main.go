package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/atkctl/internal/config"
	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}

	initLogger(cfg)
	logger.Debug().Msg("Config loaded")

	a, err := newApp(cfg, stdout)
	if err != nil {
		logFailure(err, "Failed to initialize")
		return 1
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	if err := a.run(ctx); err != nil {
		logFailure(err, "atkctl failed")
		return 1
	}

	logger.Debug().Msg("Exiting...")

	return 0
}

// initLogger routes logs to stderr when stdout carries JSON. Plain output
// is the log itself, so it needs at least info level.
func initLogger(cfg *config.Config) {
	opts := logger.Options{
		Debug:      cfg.Debug,
		Verbose:    cfg.Verbose || !cfg.JSON,
		IsService:  logger.IsService(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	if cfg.JSON {
		opts.Output = os.Stderr
	}

	logger.Init(opts)
}

// logFailure logs err with its error code when it carries one.
func logFailure(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.ErrorWithCode(appErr).Msg(msg)
		return
	}

	logger.Error().Err(err).Msg(msg)
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}
