package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/brick"
	"github.com/samcharles93/llamabricks/internal/logger"
)

type sampling struct {
	maxTokens   int64
	temperature float64
	topP        float64
	topK        int64
	thinking    bool
}

func (s sampling) params() brick.Values {
	return brick.Values{
		"max_tokens":  s.maxTokens,
		"temperature": s.temperature,
		"top_p":       s.topP,
		"top_k":       s.topK,

		brick.ParamSplitReasoning: s.thinking,
	}
}

func samplingFlags(s *sampling) []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "max-tokens",
			Aliases:     []string{"n"},
			Usage:       "maximum tokens to generate",
			Value:       100,
			Destination: &s.maxTokens,
		},
		&cli.Float64Flag{
			Name:        "temperature",
			Aliases:     []string{"temp", "t"},
			Usage:       "sampling temperature",
			Value:       0.8,
			Destination: &s.temperature,
		},
		&cli.Float64Flag{
			Name:        "top-p",
			Usage:       "nucleus sampling threshold",
			Value:       0.9,
			Destination: &s.topP,
		},
		&cli.Int64Flag{
			Name:        "top-k",
			Usage:       "top-k sampling parameter",
			Value:       40,
			Destination: &s.topK,
		},
		&cli.BoolFlag{
			Name:        "split-reasoning",
			Usage:       "strip <think> blocks from the answer and print them separately",
			Destination: &s.thinking,
		},
	}
}

// newModel builds the model brick from the shared flags.
func newModel(path string, port int64) *brick.Model {
	return brick.NewModel(path, brick.ModelOptions{ServerBinary: serverBinary, Port: int(port)})
}

// startServer launches llama-server for m and waits until /health reports ready.
// The returned stop function is safe to call when nothing started.
func startServer(ctx context.Context, m *brick.Model, out io.Writer) (func(), error) {
	_, _ = fmt.Fprintln(out, "Starting llama-server...")
	if !m.StartServer(ctx) {
		return func() {}, fmt.Errorf("failed to start server")
	}
	stop := func() {
		if err := m.StopServer(); err != nil {
			logger.FromContext(ctx).Warn("stop llama-server", "err", err)
		}
	}
	if err := m.WaitReady(ctx); err != nil {
		stop()
		return func() {}, fmt.Errorf("llama-server not ready: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Server started on port %d\n", m.Port())
	return stop, nil
}

func generateCmd() *cli.Command {
	var (
		prompt    string
		useServer bool
		port      int64
		s         sampling
	)

	flags := append(modelFlags(), binaryFlags()...)
	flags = append(flags, serverFlags(&useServer, &port)...)
	flags = append(flags, samplingFlags(&s)...)
	flags = append(flags, &cli.StringFlag{
		Name:        "prompt",
		Aliases:     []string{"p"},
		Usage:       "input prompt",
		Required:    true,
		Destination: &prompt,
	})

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate text from a prompt",
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
			res, err := brick.Run(ctx, gen, brick.Values{"prompt": prompt})
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if !res.OK() {
				return cli.Exit("Generation failed: "+res.Error, 1)
			}
			if r, _ := res.Payload["reasoning"].(string); r != "" {
				fmt.Printf("Reasoning:\n%s\n\n", r)
			}
			fmt.Println(res.Payload["text"])
			return nil
		},
	}
}
