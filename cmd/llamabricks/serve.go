package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/api"
	"github.com/samcharles93/llamabricks/internal/logger"
	"github.com/samcharles93/llamabricks/internal/pipedoc"
)

func serveCmd() *cli.Command {
	var (
		addr         string
		readTimeout  time.Duration
		runRetention time.Duration
		storeDir     string
	)

	flags := append(modelFlags(), binaryFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8090",
			Sources:     cli.EnvVars("LLAMABRICKS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read header timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.DurationFlag{
			Name:        "run-retention",
			Usage:       "how long pipeline reports stay retrievable",
			Value:       api.DefaultRunRetention,
			Destination: &runRetention,
		},
		&cli.StringFlag{
			Name:        "store-dir",
			Usage:       "directory config bricks in API pipelines may read and write (empty disables them)",
			Sources:     cli.EnvVars("LLAMABRICKS_STORE_DIR"),
			Destination: &storeDir,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve pipelines, generation and tokenization over HTTP",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, userConfig)
			applyServeConfig(c, userConfig, &addr)
			log := logger.FromContext(ctx)

			server := api.NewServer(api.Config{
				Binaries: pipedoc.Binaries{
					Server:   serverBinary,
					Generate: generateBinary,
					Tokenize: tokenizeBinary,
				},
				Models: api.ModelResolver{
					DefaultModelPath: modelPath,
					ModelsPath:       modelsPath,
				},
				StoreDir: storeDir,
			}, api.NewRunStore(runRetention))

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
