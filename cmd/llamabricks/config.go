package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the user configuration file
// (~/.config/llamabricks/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	ModelsDir string `yaml:"models_dir"`

	// Binaries
	ServerBinary   string `yaml:"server_binary"`
	GenerateBinary string `yaml:"generate_binary"`
	TokenizeBinary string `yaml:"tokenize_binary"`
	Port           *int64 `yaml:"port"`

	// Sampling defaults
	MaxTokens   *int64   `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p"`
	TopK        *int64   `yaml:"top_k"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Key/value store used by the config command
	StoreFile string `yaml:"store_file"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "llamabricks")
}

func configPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// defaultStorePath is where the config command keeps its key/value file.
func defaultStorePath(cfg Config) string {
	if cfg.StoreFile != "" {
		return cfg.StoreFile
	}
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "store.json")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyCommonConfig fills model and binary flags the user left unset.
func applyCommonConfig(c *cli.Command, cfg Config) {
	if cfg.ModelsDir != "" && !c.IsSet("models-path") {
		modelsPath = cfg.ModelsDir
	}
	if cfg.ServerBinary != "" && !c.IsSet("server-binary") {
		serverBinary = cfg.ServerBinary
	}
	if cfg.GenerateBinary != "" && !c.IsSet("generate-binary") {
		generateBinary = cfg.GenerateBinary
	}
	if cfg.TokenizeBinary != "" && !c.IsSet("tokenize-binary") {
		tokenizeBinary = cfg.TokenizeBinary
	}
}

// applySamplingConfig applies sampling defaults from the config file.
func applySamplingConfig(c *cli.Command, cfg Config, s *sampling) {
	if cfg.MaxTokens != nil && !c.IsSet("max-tokens") {
		s.maxTokens = *cfg.MaxTokens
	}
	if cfg.Temperature != nil && !c.IsSet("temperature") {
		s.temperature = *cfg.Temperature
	}
	if cfg.TopP != nil && !c.IsSet("top-p") {
		s.topP = *cfg.TopP
	}
	if cfg.TopK != nil && !c.IsSet("top-k") {
		s.topK = *cfg.TopK
	}
}

func applyPortConfig(c *cli.Command, cfg Config, port *int64) {
	if cfg.Port != nil && !c.IsSet("port") {
		*port = *cfg.Port
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
