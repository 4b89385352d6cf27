// Package manifest reads, validates and writes module manifests.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bianoble/modsync/internal/sandbox"
)

// Format is a manifest serialization.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the serialization from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported manifest extension %q — use .yaml, .yml or .toml", filepath.Ext(path))
	}
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if errs := Validate(m); len(errs) > 0 {
		return nil, &ValidationError{Path: path, Errors: errs}
	}

	return m, nil
}

// Decode parses manifest bytes in the given format without validating them.
func Decode(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	case FormatTOML:
		meta, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	return &m, nil
}

// Encode serializes a manifest in the given format.
func Encode(m *Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(m)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}

// Save writes a manifest atomically.
// The format follows the file extension.
func Save(path string, m *Manifest) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	data, err := Encode(m, format)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	if err := sandbox.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest %s validation failed:\n  - %s", e.Path, strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Manifest for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(m *Manifest) []string {
	var errs []string

	if m.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", m.Version))
	}

	if len(m.ModuleDirs) == 0 {
		errs = append(errs, "at least one module_dirs entry is required")
	}

	dirs := make(map[string]bool)
	for i, d := range m.ModuleDirs {
		prefix := fmt.Sprintf("module_dirs[%d]", i)
		if d.Dir != "" {
			prefix = fmt.Sprintf("module dir '%s'", d.Dir)
		}

		clean := filepath.Clean(d.Dir)
		switch {
		case d.Dir == "":
			errs = append(errs, fmt.Sprintf("%s: 'dir' is required", prefix))
		case dirs[clean]:
			errs = append(errs, fmt.Sprintf("%s: duplicate module dir — merge its modules into one entry", prefix))
		default:
			dirs[clean] = true
		}

		names := make(map[string]bool)
		for j, mod := range d.Modules {
			modPrefix := fmt.Sprintf("%s: module[%d]", prefix, j)
			if mod.Name != "" {
				modPrefix = fmt.Sprintf("%s: module '%s'", prefix, mod.Name)
			}

			switch {
			case mod.Name == "":
				errs = append(errs, fmt.Sprintf("%s: 'name' is required", modPrefix))
			case !isPlainName(mod.Name):
				errs = append(errs, fmt.Sprintf("%s: name must be a single path element", modPrefix))
			case names[mod.Name]:
				errs = append(errs, fmt.Sprintf("%s: duplicate module name '%s'", modPrefix, mod.Name))
			default:
				names[mod.Name] = true
			}

			if mod.Source == "" {
				errs = append(errs, fmt.Sprintf("%s: 'source' is required — add 'source: https://...' to the module", modPrefix))
			}
			if mod.Ref == "" {
				errs = append(errs, fmt.Sprintf("%s: 'ref' is required — add 'ref: <branch-tag-or-commit>' to the module", modPrefix))
			}
		}
	}

	return errs
}

func isPlainName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
