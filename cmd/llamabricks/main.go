package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/logger"
	"github.com/samcharles93/llamabricks/internal/version"
)

// userConfig is loaded once by the root Before hook.
var userConfig Config

func main() {
	// .env must be loaded before flags resolve their env sources.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "warning: load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().Run(ctx, os.Args)
	if ctx.Err() != nil {
		_, _ = fmt.Fprintln(os.Stderr, "\nInterrupted by user")
		os.Exit(130)
	}
	if err != nil {
		if msg := err.Error(); msg != "" {
			_, _ = fmt.Fprintln(os.Stderr, msg)
		}
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			os.Exit(ec.ExitCode())
		}
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "llamabricks",
		Usage:   "Composable bricks over the llama.cpp binaries",
		Version: version.String(),
		Flags:   loggingFlags(),
		Before:  setup,
		// Exit codes are decided in main so an interrupt can map to 130.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			generateCmd(),
			tokenizeCmd(),
			pipelineCmd(),
			interactiveCmd(),
			inspectCmd(),
			configCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

// setup loads the user config and installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	userConfig = LoadConfig()

	level, format := logLevel, logFormat
	if userConfig.LogLevel != "" && !cmd.IsSet("log-level") {
		level = userConfig.LogLevel
	}
	if userConfig.LogFormat != "" && !cmd.IsSet("log-format") {
		format = userConfig.LogFormat
	}
	if debug {
		level = "debug"
	}

	log, err := logger.Setup(os.Stderr, level, format)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}
	return logger.WithContext(ctx, log), nil
}
