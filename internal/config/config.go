package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	ProjectsDir string `mapstructure:"projects_dir" yaml:"projects_dir"`
	CacheDir    string `mapstructure:"cache_dir" yaml:"cache_dir"`
	CacheTTLMin int    `mapstructure:"cache_ttl_min" yaml:"cache_ttl_min"`

	// Profiling defaults; CLI flags override these per run.
	TopK    int     `mapstructure:"top_k" yaml:"top_k"`
	MinCorr float64 `mapstructure:"min_corr" yaml:"min_corr"`
	Bins    int     `mapstructure:"bins" yaml:"bins"`
	MaxRows int     `mapstructure:"max_rows" yaml:"max_rows"`
	Format  string  `mapstructure:"format" yaml:"format"`

	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`

	// Server
	ServeAddr   string `mapstructure:"serve_addr" yaml:"serve_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"projects_dir", "cache_dir", "cache_ttl_min", "top_k", "min_corr", "bins", "max_rows",
	"format", "http_timeout_sec", "log_level", "serve_addr", "max_upload_mb",
}

// Dir returns ~/.tabsight.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabsight"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabsight/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TABSIGHT")
	v.AutomaticEnv()

	v.SetDefault("projects_dir", "")
	v.SetDefault("cache_dir", "")
	v.SetDefault("cache_ttl_min", 60)
	v.SetDefault("top_k", 2)
	v.SetDefault("min_corr", 0.0)
	v.SetDefault("bins", 30)
	v.SetDefault("max_rows", 100000)
	v.SetDefault("format", "md")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("log_level", "warn")
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("max_upload_mb", 32)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ProjectsDir == "" || c.CacheDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		if c.ProjectsDir == "" {
			c.ProjectsDir = filepath.Join(dir, "projects")
		}
		if c.CacheDir == "" {
			c.CacheDir = filepath.Join(dir, "cache")
		}
	}
	return &c, nil
}

// Get returns the display value of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "projects_dir":
		return c.ProjectsDir, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "cache_ttl_min":
		return strconv.Itoa(c.CacheTTLMin), nil
	case "top_k":
		return strconv.Itoa(c.TopK), nil
	case "min_corr":
		return strconv.FormatFloat(c.MinCorr, 'f', -1, 64), nil
	case "bins":
		return strconv.Itoa(c.Bins), nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "format":
		return c.Format, nil
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), nil
	case "log_level":
		return c.LogLevel, nil
	case "serve_addr":
		return c.ServeAddr, nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	setInt := func(dst *int, lo int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
		return nil
	}
	switch key {
	case "projects_dir":
		c.ProjectsDir = val
	case "cache_dir":
		c.CacheDir = val
	case "cache_ttl_min":
		return setInt(&c.CacheTTLMin, 0)
	case "top_k":
		return setInt(&c.TopK, 0)
	case "min_corr":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid float for min_corr: %v (want 0..1)", val)
		}
		c.MinCorr = f
	case "bins":
		return setInt(&c.Bins, 1)
	case "max_rows":
		return setInt(&c.MaxRows, 0)
	case "format":
		switch strings.ToLower(val) {
		case "md", "json", "html", "term":
			c.Format = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid format: %s (use md, json, html or term)", val)
		}
	case "http_timeout_sec":
		return setInt(&c.HTTPTimeoutSec, 1)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "serve_addr":
		c.ServeAddr = val
	case "max_upload_mb":
		return setInt(&c.MaxUploadMB, 1)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
