package main

import "github.com/urfave/cli/v3"

var (
	modelPath      string
	modelsPath     string
	serverBinary   string
	generateBinary string
	tokenizeBinary string
	logLevel       string
	logFormat      string
	debug          bool
)

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to .gguf file",
			Sources:     cli.EnvVars("LLAMABRICKS_MODEL"),
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "models-path",
			Aliases:     []string{"path"},
			Usage:       "path to directory containing .gguf models",
			Sources:     cli.EnvVars(envModelsDir),
			Destination: &modelsPath,
		},
	}
}

func binaryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "server-binary",
			Usage:       "llama-server executable",
			Value:       "llama-server",
			Sources:     cli.EnvVars("LLAMABRICKS_SERVER_BIN"),
			Destination: &serverBinary,
		},
		&cli.StringFlag{
			Name:        "generate-binary",
			Usage:       "one-shot generation executable",
			Value:       "llama-main",
			Sources:     cli.EnvVars("LLAMABRICKS_GENERATE_BIN"),
			Destination: &generateBinary,
		},
		&cli.StringFlag{
			Name:        "tokenize-binary",
			Usage:       "tokenizer executable",
			Value:       "llama-tokenize",
			Sources:     cli.EnvVars("LLAMABRICKS_TOKENIZE_BIN"),
			Destination: &tokenizeBinary,
		},
	}
}

// serverFlags are shared by commands that can run through llama-server.
func serverFlags(useServer *bool, port *int64) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "server",
			Usage:       "start llama-server and generate through its HTTP API",
			Destination: useServer,
		},
		&cli.Int64Flag{
			Name:        "port",
			Usage:       "llama-server port",
			Value:       8080,
			Sources:     cli.EnvVars("LLAMABRICKS_PORT"),
			Destination: port,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("LLAMABRICKS_LOG_LEVEL"),
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Sources:     cli.EnvVars("LLAMABRICKS_LOG_FORMAT"),
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
