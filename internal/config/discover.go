package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	settingsFileName = "config.yaml"
	settingsDirName  = "modsync"

	// ProjectFileName is the settings file read from the project directory.
	ProjectFileName = ".modsync.yaml"
)

// Level represents the precedence level of a settings file.
type Level string

const (
	LevelSystem   Level = "system"
	LevelUser     Level = "user"
	LevelProject  Level = "project"
	LevelExplicit Level = "explicit"
)

// LayerInfo describes a discovered settings file and its load status.
type LayerInfo struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  Level
	Loaded bool
}

// DiscoverOptions controls how settings paths are discovered.
type DiscoverOptions struct {
	// ProjectDir holds the project-level .modsync.yaml.
	ProjectDir string

	// ConfigFile, when set, is the only settings file read.
	ConfigFile string

	// SystemConfigPath overrides the default system settings path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	SystemConfigPath string

	// UserConfigPath overrides the default user settings path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	UserConfigPath string

	// NoInherit skips the system and user layers.
	NoInherit bool
}

// DiscoverPaths returns the ordered list of settings files to check,
// from lowest precedence (system) to highest (project).
// Paths are deduplicated by resolved absolute path.
func DiscoverPaths(opts DiscoverOptions) []LayerInfo {
	if opts.ConfigFile != "" {
		return []LayerInfo{{Path: opts.ConfigFile, Level: LevelExplicit}}
	}

	var layers []LayerInfo
	seen := make(map[string]bool)

	addLayer := func(level Level, path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		layers = append(layers, LayerInfo{
			Path:  path,
			Level: level,
		})
	}

	if !opts.NoInherit {
		sysPath := opts.SystemConfigPath
		if sysPath == "" {
			sysPath = defaultSystemConfigPath()
		}
		addLayer(LevelSystem, sysPath)

		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath = defaultUserConfigPath()
		}
		addLayer(LevelUser, userPath)
	}

	if opts.ProjectDir != "" {
		addLayer(LevelProject, filepath.Join(opts.ProjectDir, ProjectFileName))
	}

	return layers
}

// defaultSystemConfigPath returns the platform-standard system settings path.
func defaultSystemConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		pd := os.Getenv("ProgramData")
		if pd == "" {
			pd = `C:\ProgramData`
		}
		return filepath.Join(pd, settingsDirName, settingsFileName)
	default: // linux, darwin, etc.
		return filepath.Join("/etc", settingsDirName, settingsFileName)
	}
}

// defaultUserConfigPath returns the platform-standard user settings path.
func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, settingsDirName, settingsFileName)
}

// EnvNoInherit returns true if MODSYNC_NO_INHERIT is set to "1" or "true".
func EnvNoInherit() bool {
	return envBoolTrue("MODSYNC_NO_INHERIT")
}

// envBoolTrue returns true if the env var is set to "1" or "true" (case-insensitive).
func envBoolTrue(key string) bool {
	v := os.Getenv(key)
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true"
}
