package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/gguf"
)

var inspectKeys = []string{
	"general.name",
	"general.architecture",
	"general.file_type",
	"general.quantization_version",
	"tokenizer.ggml.model",
	"tokenizer.ggml.bos_token_id",
	"tokenizer.ggml.eos_token_id",
}

func inspectCmd() *cli.Command {
	var (
		showKV bool
		asJSON bool
	)

	flags := append(modelFlags(),
		&cli.BoolFlag{Name: "kv", Usage: "show all metadata key/values", Destination: &showKV},
		&cli.BoolFlag{Name: "json", Usage: "print the metadata summary as JSON", Destination: &asJSON},
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the GGUF metadata of a model",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, userConfig)

			path, err := resolveModelPath(modelPath, modelsPath, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: resolve model: %v", err), 1)
			}
			md, err := gguf.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(md.Summary())
			}
			printMetadata(os.Stdout, md, showKV)
			return nil
		},
	}
}

func printMetadata(w io.Writer, md *gguf.Metadata, all bool) {
	fmt.Fprintf(w, "File: %s\n", md.Path)
	fmt.Fprintf(w, "GGUF v%d | tensors=%d | kv=%d\n", md.Header.Version, md.Header.TensorCount, md.Header.KVCount)

	keys := inspectKeys
	if arch := md.Architecture(); arch != "" {
		keys = append(slices.Clone(keys), arch+".context_length", arch+".block_count", arch+".embedding_length")
	}
	if all {
		keys = make([]string, 0, len(md.KV))
		for k := range md.KV {
			keys = append(keys, k)
		}
		slices.Sort(keys)
	}
	for _, k := range keys {
		if v, ok := md.KV[k]; ok {
			fmt.Fprintf(w, "  %s = %s\n", k, gguf.FormatValue(v))
		}
	}
	if n := md.VocabSize(); n > 0 && !all {
		fmt.Fprintf(w, "  vocab size = %d\n", n)
	}
}
