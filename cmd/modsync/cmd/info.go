package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/manifest"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show settings, manifests and cache information",
	Long: `Displays the modsync version, the settings files consulted, the manifests
found in the project directory, and the fetch cache location and size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		fmt.Printf("modsync %s\n", version)
		fmt.Printf("  project:       %s\n", client.ProjectRoot())

		if len(layers) > 0 {
			fmt.Println("  settings chain:")
			for _, layer := range layers {
				status := "not found"
				if layer.Loaded {
					status = "loaded"
				}
				fmt.Printf("    %-10s %s (%s)\n", string(layer.Level)+":", layer.Path, status)
			}
		}

		for _, variant := range []string{manifest.VariantTracking, manifest.VariantStable} {
			path, err := client.ManifestPath(variant)
			if err != nil {
				path = render(mutedStyle, "(none)")
			}
			fmt.Printf("  %-14s %s\n", variant+":", path)
		}

		size, err := client.CacheSize()
		if err != nil {
			return fmt.Errorf("measuring cache: %w", err)
		}
		fmt.Printf("  cache dir:     %s\n", client.CacheDir())
		fmt.Printf("  cache size:    %s\n", humanSize(size))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
