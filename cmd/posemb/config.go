package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/voxelflow/posemb/internal/logger"
)

// Config represents the posemb configuration file
// (~/.config/posemb/config.yaml). Pointer fields distinguish "not set" from
// zero values.
type Config struct {
	Variant       string   `yaml:"variant"`
	HeadDim       *int64   `yaml:"head_dim"`
	ModelChannels *int64   `yaml:"model_channels"`
	LenT          *int64   `yaml:"len_t"`
	LenH          *int64   `yaml:"len_h"`
	LenW          *int64   `yaml:"len_w"`
	BaseFPS       *float64 `yaml:"base_fps"`
	MinFPS        *int64   `yaml:"min_fps"`
	MaxFPS        *int64   `yaml:"max_fps"`
	Interpolation string   `yaml:"interpolation"`
	Views         *int64   `yaml:"views"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "posemb", "config.yaml")
}

// applyEmbedderConfig applies config file defaults to the shared embedder
// flag variables when the corresponding CLI flag was not explicitly set.
func applyEmbedderConfig(c *cli.Command, cfg Config) {
	if cfg.Variant != "" && !c.IsSet("variant") {
		variant = cfg.Variant
	}
	if cfg.HeadDim != nil && !c.IsSet("head-dim") {
		headDim = *cfg.HeadDim
	}
	if cfg.ModelChannels != nil && !c.IsSet("model-channels") {
		modelChannels = *cfg.ModelChannels
	}
	if cfg.LenT != nil && !c.IsSet("len-t") {
		lenT = *cfg.LenT
	}
	if cfg.LenH != nil && !c.IsSet("len-h") {
		lenH = *cfg.LenH
	}
	if cfg.LenW != nil && !c.IsSet("len-w") {
		lenW = *cfg.LenW
	}
	if cfg.BaseFPS != nil && !c.IsSet("base-fps") {
		baseFPS = *cfg.BaseFPS
	}
	if cfg.MinFPS != nil && !c.IsSet("min-fps") {
		minFPS = *cfg.MinFPS
	}
	if cfg.MaxFPS != nil && !c.IsSet("max-fps") {
		maxFPS = *cfg.MaxFPS
	}
	if cfg.Interpolation != "" && !c.IsSet("interpolation") {
		interpolation = cfg.Interpolation
	}
	if cfg.Views != nil && !c.IsSet("views") {
		views = *cfg.Views
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or fails to parse.
func LoadConfig() Config {
	path := configPath()
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

// newLogger builds the command logger from the logging flags.
func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
