package cmd

import (
	"fmt"
	"os"

	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/pkg/modsync"
)

// newClient creates a library client from the loaded settings.
func newClient() (*modsync.Client, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings not loaded")
	}
	return modsync.New(modsync.Options{
		ProjectRoot: settings.ProjectDir,
		CacheDir:    settings.CacheRoot(),
		GitBinary:   settings.GitBinary,
		Logger:      logger,
	})
}

// variantArg returns the manifest variant named on the command line, or the
// tracking variant when none is given.
func variantArg(args []string) (string, error) {
	variant := manifest.VariantTracking
	if len(args) > 0 {
		variant = args[0]
	}
	if err := manifest.ValidateVariant(variant); err != nil {
		return "", err
	}
	return variant, nil
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, render(errorStyle, "error:")+" "+format+"\n", args...)
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
