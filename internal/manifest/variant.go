package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manifest variants selected at invocation time.
const (
	// VariantTracking pins modules to branches.
	VariantTracking = "tracking"
	// VariantStable pins modules to exact commits; written by record.
	VariantStable = "stable"

	// BaseName prefixes every manifest file: modsync.<variant>.<ext>.
	BaseName = "modsync"
)

var extensions = []string{".yaml", ".yml", ".toml"}

// ValidateVariant rejects variant names that cannot form a manifest file name.
func ValidateVariant(variant string) error {
	if variant == "" {
		return fmt.Errorf("manifest variant is required")
	}
	if strings.ContainsAny(variant, `/\`) || strings.HasPrefix(variant, ".") {
		return fmt.Errorf("invalid manifest variant %q", variant)
	}
	return nil
}

// FileName returns the manifest file name for a variant in the given format.
func FileName(variant string, format Format) string {
	ext := ".yaml"
	if format == FormatTOML {
		ext = ".toml"
	}
	return BaseName + "." + variant + ext
}

// Existing returns every manifest file of the variant present in dir, in
// extension order.
func Existing(dir, variant string) ([]string, error) {
	if err := ValidateVariant(variant); err != nil {
		return nil, err
	}

	var paths []string
	for _, ext := range extensions {
		path := filepath.Join(dir, BaseName+"."+variant+ext)
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Find returns the path of the variant's manifest in dir. It fails when the
// variant exists in more than one format, since either could be stale.
func Find(dir, variant string) (string, error) {
	paths, err := Existing(dir, variant)
	if err != nil {
		return "", err
	}

	switch len(paths) {
	case 0:
		return "", fmt.Errorf("no %s manifest in %s (looked for %s.%s{.yaml,.yml,.toml}): %w",
			variant, dir, BaseName, variant, os.ErrNotExist)
	case 1:
		return paths[0], nil
	default:
		names := make([]string, len(paths))
		for i, p := range paths {
			names[i] = filepath.Base(p)
		}
		return "", fmt.Errorf("ambiguous %s manifest in %s: found %s — keep only one",
			variant, dir, strings.Join(names, ", "))
	}
}
