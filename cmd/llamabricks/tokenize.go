package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/brick"
)

func tokenizeCmd() *cli.Command {
	var (
		text  string
		count bool
	)

	flags := append(modelFlags(), binaryFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "text",
			Usage:       "text to tokenize",
			Required:    true,
			Destination: &text,
		},
		&cli.BoolFlag{
			Name:        "count",
			Usage:       "only print the token count",
			Destination: &count,
		},
	)

	return &cli.Command{
		Name:  "tokenize",
		Usage: "Tokenize text or count its tokens",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, userConfig)

			path, err := resolveModelPath(modelPath, modelsPath, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: resolve model: %v", err), 1)
			}
			tok := brick.NewTokenization(brick.NewModel(path, brick.ModelOptions{}))
			tok.SetExecutable(tokenizeBinary)

			op := brick.OpTokenize
			if count {
				op = brick.OpCount
			}
			res, err := brick.Run(ctx, tok, brick.Values{"text": text, "operation": op})
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if !res.OK() {
				return cli.Exit("Tokenization failed: "+res.Error, 1)
			}
			if count {
				fmt.Printf("Token count: %v\n", res.Payload["count"])
				return nil
			}
			fmt.Printf("Tokens: %v\n", res.Payload["tokens"])
			fmt.Printf("Count: %v\n", res.Payload["count"])
			return nil
		},
	}
}
