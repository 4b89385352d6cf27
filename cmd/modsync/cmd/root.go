package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/config"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags that are not settings.
var (
	configFile string
	verbose    bool
	quiet      bool
)

// Per-invocation state, filled in by loadSettings.
var (
	vp       = config.NewViper()
	settings *config.Settings
	layers   []config.LayerInfo
	logger   = log.NewWithOptions(os.Stderr, log.Options{Prefix: "modsync"})
)

var rootCmd = &cobra.Command{
	Use:   "modsync",
	Short: "Reconcile git-hosted modules against a manifest",
	Long: `modsync keeps a project's module directories in step with a manifest of
git sources and refs. Each upstream source is mirrored once into a shared
cache, and working trees are synced from that cache. A module with local
modifications is never overwritten.

Manifests are named modsync.<variant>.yaml (or .yml, .toml). The tracking
variant pins branches; the stable variant, written by 'record', pins commits.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("modsync %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	d := config.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.String("dir", d.ProjectDir, "project directory holding the manifests")
	flags.String("cache-dir", d.CacheDir, "fetch cache directory (default <dir>/.modsync_cache)")
	flags.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	flags.Bool("no-color", d.NoColor, "disable colored output")
	flags.String("git", d.GitBinary, "git executable")
	flags.StringVar(&configFile, "config", "", "settings file (default: system, user and <dir>/.modsync.yaml)")
	flags.BoolVar(&verbose, "verbose", false, "detailed output")
	flags.BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	for key, flag := range map[string]string{
		config.KeyDir:       "dir",
		config.KeyCacheDir:  "cache-dir",
		config.KeyLogLevel:  "log-level",
		config.KeyNoColor:   "no-color",
		config.KeyGitBinary: "git",
	} {
		if err := vp.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(versionCmd)
}

// loadSettings resolves settings and builds the logger for this invocation.
func loadSettings() error {
	s, l, err := config.Load(vp, config.DiscoverOptions{
		ConfigFile: configFile,
		NoInherit:  config.EnvNoInherit(),
	})
	if err != nil {
		return err
	}
	settings, layers = s, l

	level := s.Level()
	switch {
	case quiet:
		level = log.ErrorLevel
	case verbose:
		level = log.DebugLevel
	}
	logger = newLogger(level, s.NoColor)
	noColor = s.NoColor
	return nil
}

func newLogger(level log.Level, plain bool) *log.Logger {
	opts := log.Options{
		Prefix: "modsync",
		Level:  level,
	}
	if plain {
		opts.Formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(os.Stderr, opts)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
