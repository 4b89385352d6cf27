// Package config loads modsync's runtime settings from defaults, settings
// files, MODSYNC_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/bianoble/modsync/internal/cache"
)

// EnvPrefix prefixes every environment variable read into settings.
const EnvPrefix = "MODSYNC"

// Settings keys, shared by files, environment and flag bindings.
const (
	KeyDir       = "dir"
	KeyCacheDir  = "cache_dir"
	KeyLogLevel  = "log_level"
	KeyNoColor   = "no_color"
	KeyGitBinary = "git_binary"
)

// Settings are the runtime options of one invocation.
type Settings struct {
	// ProjectDir holds the manifests. Always absolute after Load.
	ProjectDir string `mapstructure:"dir"`

	// CacheDir overrides the fetch cache location. Relative paths resolve
	// against ProjectDir.
	CacheDir string `mapstructure:"cache_dir"`

	LogLevel  string `mapstructure:"log_level"`
	NoColor   bool   `mapstructure:"no_color"`
	GitBinary string `mapstructure:"git_binary"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Settings {
	return Settings{
		ProjectDir: ".",
		LogLevel:   "info",
		GitBinary:  "git",
	}
}

// NewViper returns a viper instance with defaults and environment binding
// configured. Callers bind flags onto it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyDir, d.ProjectDir)
	v.SetDefault(KeyCacheDir, d.CacheDir)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyNoColor, d.NoColor)
	v.SetDefault(KeyGitBinary, d.GitBinary)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// Load merges the discovered settings files into v and decodes the result.
// Missing files are skipped; a file that exists but cannot be parsed fails the
// load. The returned layers report what was found.
func Load(v *viper.Viper, opts DiscoverOptions) (*Settings, []LayerInfo, error) {
	if opts.ProjectDir == "" {
		opts.ProjectDir = v.GetString(KeyDir)
	}

	layers := DiscoverPaths(opts)
	for i := range layers {
		layer := &layers[i]
		v.SetConfigFile(layer.Path)
		v.SetConfigType(configType(layer.Path))
		err := v.MergeInConfig()
		switch {
		case err == nil:
			layer.Loaded = true
		case isNotFound(err) && layer.Level != LevelExplicit:
		default:
			layer.Err = err
			return nil, layers, fmt.Errorf("reading %s settings %s: %w", layer.Level, layer.Path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, layers, fmt.Errorf("decoding settings: %w", err)
	}

	abs, err := filepath.Abs(s.ProjectDir)
	if err != nil {
		return nil, layers, fmt.Errorf("resolving project directory: %w", err)
	}
	s.ProjectDir = abs

	if errs := s.Validate(); len(errs) > 0 {
		return nil, layers, &ValidationError{Errors: errs}
	}

	return &s, layers, nil
}

func configType(path string) string {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return ext
	}
	return "yaml"
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks Settings for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func (s *Settings) Validate() []string {
	var errs []string

	if s.ProjectDir == "" {
		errs = append(errs, "'dir' must not be empty")
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log_level %q — use debug, info, warn, error or fatal", s.LogLevel))
	}
	if s.GitBinary == "" {
		errs = append(errs, "'git_binary' must not be empty")
	}

	return errs
}

// Level returns the parsed log level, falling back to info.
func (s *Settings) Level() log.Level {
	lvl, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// CacheRoot returns the absolute fetch cache directory.
func (s *Settings) CacheRoot() string {
	switch {
	case s.CacheDir == "":
		return cache.DefaultDir(s.ProjectDir)
	case filepath.IsAbs(s.CacheDir):
		return s.CacheDir
	default:
		return filepath.Join(s.ProjectDir, s.CacheDir)
	}
}
