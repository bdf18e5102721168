package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/brick"
)

func configCmd() *cli.Command {
	var (
		file string
		list bool
		get  string
		set  string
	)

	return &cli.Command{
		Name:      "config",
		Usage:     "Manage the key/value configuration store",
		ArgsUsage: "[VALUE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "store file (default ~/.config/llamabricks/store.json)",
				Sources:     cli.EnvVars("LLAMABRICKS_STORE"),
				Destination: &file,
			},
			&cli.BoolFlag{
				Name:        "list",
				Usage:       "print every stored value",
				Destination: &list,
			},
			&cli.StringFlag{
				Name:        "get",
				Usage:       "print the value of `KEY`",
				Destination: &get,
			},
			&cli.StringFlag{
				Name:        "set",
				Usage:       "set `KEY` to the VALUE argument (parsed as JSON when possible)",
				Destination: &set,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if file == "" {
				file = defaultStorePath(userConfig)
			}
			store := brick.NewConfig(file)

			switch {
			case list:
				return configList(ctx, store, os.Stdout)
			case get != "":
				return configGet(ctx, store, get, os.Stdout)
			case set != "":
				if c.Args().Len() != 1 {
					return cli.Exit("--set needs KEY and VALUE", 1)
				}
				return configSet(ctx, store, set, c.Args().First(), os.Stdout)
			default:
				return cli.Exit("Use --list, --get KEY, or --set KEY VALUE", 1)
			}
		},
	}
}

func loadStore(ctx context.Context, store *brick.Config) error {
	res, err := brick.Run(ctx, store, brick.Values{"action": brick.ActionLoad})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if !res.OK() {
		return cli.Exit("Failed to load config: "+res.Error, 1)
	}
	return nil
}

func configList(ctx context.Context, store *brick.Config, w io.Writer) error {
	if err := loadStore(ctx, store); err != nil {
		return err
	}
	cfg := store.Store().Values()
	if len(cfg) == 0 {
		_, _ = fmt.Fprintln(w, "No configuration found")
		return nil
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	_, _ = fmt.Fprintln(w, string(out))
	return nil
}

func configGet(ctx context.Context, store *brick.Config, key string, w io.Writer) error {
	if err := loadStore(ctx, store); err != nil {
		return err
	}
	res, err := brick.Run(ctx, store, brick.Values{"action": brick.ActionGet, "key": key})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", key, formatValue(res.Payload["value"]))
	return nil
}

func configSet(ctx context.Context, store *brick.Config, key, raw string, w io.Writer) error {
	if err := loadStore(ctx, store); err != nil {
		return err
	}
	value := parseValue(raw)
	if _, err := brick.Run(ctx, store, brick.Values{"action": brick.ActionSet, "key": key, "value": value}); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	res, err := brick.Run(ctx, store, brick.Values{"action": brick.ActionSave})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if res.Status != brick.StatusSaved {
		return cli.Exit("Failed to save config: "+res.Error, 1)
	}
	_, _ = fmt.Fprintf(w, "Set %s = %s\n", key, formatValue(value))
	return nil
}

// parseValue decodes raw as JSON and falls back to the literal string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return "null"
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}
