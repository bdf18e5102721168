package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/brick"
	"github.com/samcharles93/llamabricks/internal/logger"
)

const interactiveHelp = `
Interactive Commands:
  - Type any text to generate a response
  - 'help' - Show this help
  - 'quit' or 'exit' - Exit interactive mode
`

func interactiveCmd() *cli.Command {
	var (
		useServer bool
		port      int64
		s         sampling
	)

	flags := append(modelFlags(), binaryFlags()...)
	flags = append(flags, serverFlags(&useServer, &port)...)
	flags = append(flags, samplingFlags(&s)...)

	return &cli.Command{
		Name:  "interactive",
		Usage: "Generate from prompts typed at a prompt",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, userConfig)
			applySamplingConfig(c, userConfig, &s)
			applyPortConfig(c, userConfig, &port)

			path, err := resolveModelPath(modelPath, modelsPath, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: resolve model: %v", err), 1)
			}
			m := newModel(path, port)
			if useServer {
				stop, err := startServer(ctx, m, os.Stdout)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				defer stop()
			}

			gen := brick.NewGeneration(m, s.params())
			gen.SetExecutable(generateBinary)

			ed := newLineEditor(historyPath(), os.Stdin, os.Stdout, stdinIsTTY())
			if err := ed.load(); err != nil {
				logger.FromContext(ctx).Warn("load history", "path", ed.path, "err", err)
			}
			defer func() {
				if err := ed.save(); err != nil {
					logger.FromContext(ctx).Warn("save history", "path", ed.path, "err", err)
				}
			}()

			return runInteractive(ctx, gen, ed.readLine, os.Stdout)
		},
	}
}

func historyPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history")
}

// runInteractive loops until quit, exit, end of input or cancellation.
// Generation failures are printed and the loop continues.
func runInteractive(ctx context.Context, gen brick.Brick, read func(prompt string) (string, error), out io.Writer) error {
	_, _ = fmt.Fprintln(out, "llamabricks interactive mode")
	_, _ = fmt.Fprintln(out, "Type 'quit' or 'exit' to quit, 'help' for commands")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", 50))

	for ctx.Err() == nil {
		line, err := read(">>> ")
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		prompt := strings.TrimSpace(line)
		switch strings.ToLower(prompt) {
		case "quit", "exit":
			_, _ = fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case "help":
			_, _ = fmt.Fprint(out, interactiveHelp)
			continue
		case "":
			continue
		}

		res, err := brick.Run(ctx, gen, brick.Values{"prompt": prompt})
		switch {
		case err != nil:
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		case !res.OK():
			_, _ = fmt.Fprintf(out, "Error: %s\n", res.Error)
		default:
			_, _ = fmt.Fprintf(out, "Generated: %v\n", res.Payload["text"])
		}
	}
	_, _ = fmt.Fprintln(out, "\nGoodbye!")
	return nil
}
