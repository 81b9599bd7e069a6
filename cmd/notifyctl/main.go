// Command notifyctl watches and manages a user's notifications from the terminal.
//
// Usage:
//
//	notifyctl [watch]          stream live notifications and badge counts
//	notifyctl list [page]      print one page of history
//	notifyctl read <id>        mark a notification read
//	notifyctl read-all         mark everything read
//	notifyctl delete <id>      delete a notification
//	notifyctl delete-read      delete every read notification
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/auth"
	"github.com/dmitrymomot/notifykit/pkg/gateway"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

const serviceName = "notifyctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

// app holds the collaborators shared by every command.
type app struct {
	cfg    Config
	log    *slog.Logger
	tokens auth.TokenProvider
	gw     *gateway.Client
	out    io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg, os.Stderr)
	logger.SetAsDefault(log)

	tokens, err := cfg.tokenProvider()
	if err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		tokens: tokens,
		out:    out,
		gw: gateway.New(cfg.APIURL, tokens,
			gateway.WithTimeout(cfg.RequestTimeout),
			gateway.WithLogger(log),
			gateway.WithUserAgent(serviceName+"/1.0"),
			gateway.WithCircuitBreaker(gateway.NewCircuitBreaker(5, 2, 30*time.Second)),
		),
	}

	cmd, rest := "watch", args
	if len(args) > 0 {
		cmd, rest = args[0], args[1:]
	}
	return a.dispatch(context.WithValue(ctx, commandKey{}, cmd), cmd, rest)
}

// commandKey carries the running subcommand; every log record is tagged with it.
type commandKey struct{}

func newLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.AppEnv, serviceName),
		logger.WithOutput(w),
		logger.WithContextValue("command", commandKey{}),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	return logger.New(opts...)
}
