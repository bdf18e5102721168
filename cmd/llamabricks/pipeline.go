package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/brick"
	"github.com/samcharles93/llamabricks/internal/pipedoc"
)

func pipelineCmd() *cli.Command {
	var (
		docPath   string
		input     string
		validate  bool
		useServer bool
	)

	flags := append(binaryFlags(),
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "pipeline document (.json, .yaml or .toml)",
			Required:    true,
			Destination: &docPath,
		},
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "initial input as a JSON object",
			Destination: &input,
		},
		&cli.BoolFlag{
			Name:        "validate",
			Usage:       "check the connection graph and exit",
			Destination: &validate,
		},
		&cli.BoolFlag{
			Name:        "server",
			Usage:       "start llama-server for each model brick during the run",
			Destination: &useServer,
		},
	)

	return &cli.Command{
		Name:  "pipeline",
		Usage: "Run a pipeline document",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, userConfig)

			if _, err := os.Stat(docPath); err != nil {
				return cli.Exit(fmt.Sprintf("Config file not found: %s", docPath), 1)
			}
			doc, err := pipedoc.ReadFile(docPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Failed to load config: %v", err), 1)
			}
			initial, err := parseInput(input)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Failed to parse input JSON: %v", err), 1)
			}
			built, err := pipedoc.Build(doc, pipedoc.Binaries{
				Server:   serverBinary,
				Generate: generateBinary,
				Tokenize: tokenizeBinary,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("Failed to build pipeline from config: %v", err), 1)
			}

			if validate {
				return reportValidation(os.Stdout, built.Pipeline.Validate())
			}

			if useServer {
				if err := built.StartServers(ctx); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				defer built.StopServers()
			}

			rep := built.Pipeline.Execute(ctx, initial)
			if !rep.OK() {
				return cli.Exit("Pipeline failed: "+rep.Error, 1)
			}
			out, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: encode report: %v", err), 1)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// parseInput decodes the --input object. Empty input yields an empty map.
func parseInput(raw string) (brick.Values, error) {
	if raw == "" {
		return brick.Values{}, nil
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("input must be a JSON object")
	}
	return brick.Values(v), nil
}

func reportValidation(w io.Writer, err error) error {
	if err == nil {
		_, _ = fmt.Fprintln(w, "pipeline is valid")
		return nil
	}
	issues := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		issues = j.Unwrap()
	}
	for _, e := range issues {
		_, _ = fmt.Fprintf(w, "- %v\n", e)
	}
	return cli.Exit(fmt.Sprintf("pipeline has %d issue(s)", len(issues)), 1)
}
