package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/internal/sandbox"
)

var (
	initForce  bool
	initFormat string
)

// initTemplates are the starter tracking manifests, one per format.
var initTemplates = map[manifest.Format]string{
	manifest.FormatYAML: `# modsync tracking manifest
version: 1

module_dirs:
  # Relative to this file.
  - dir: modules
    modules:
      - name: stdlib
        source: https://github.com/your-org/stdlib.git
        ref: main
        # options:              # optional, kept by 'modsync record'
        #   note: vendored
`,
	manifest.FormatTOML: `# modsync tracking manifest
version = 1

# Relative to this file.
[[module_dirs]]
dir = "modules"

[[module_dirs.modules]]
name = "stdlib"
source = "https://github.com/your-org/stdlib.git"
ref = "main"
`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter tracking manifest",
	Long: `Creates modsync.tracking.yaml (or .toml with --format toml) in the project
directory with one example module.

Use --force to overwrite an existing manifest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := manifest.Format(initFormat)
		template, ok := initTemplates[format]
		if !ok {
			return fmt.Errorf("unsupported format %q — use yaml or toml", initFormat)
		}

		dir := "."
		if settings != nil {
			dir = settings.ProjectDir
		}
		outPath := filepath.Join(dir, manifest.FileName(manifest.VariantTracking, format))
		if abs, err := filepath.Abs(outPath); err == nil {
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := sandbox.WriteFile(outPath, []byte(template), 0644); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Edit the file to list your modules")
		info("  2. Run 'modsync checkout' to fetch and check them out")
		info("  3. Run 'modsync record' to pin the result in the stable manifest")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing manifest")
	initCmd.Flags().StringVar(&initFormat, "format", string(manifest.FormatYAML), "manifest format: yaml or toml")
	rootCmd.AddCommand(initCmd)
}
