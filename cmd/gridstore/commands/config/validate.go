package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the gridstore configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  gridstore config validate

  # Validate specific config file
  gridstore config validate --config /etc/gridstore/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string

	if !cfg.API.HasJWTSecret() {
		warnings = append(warnings, "JWT secret not configured - the API will run unauthenticated")
	}
	if cfg.Store.Type == config.StoreTypeMemory {
		warnings = append(warnings, "memory store is volatile - all files are lost on restart")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Store type:   %s\n", cfg.Store.Type)
	fmt.Printf("  Bucket:       %s\n", cfg.Bucket.Name)
	fmt.Printf("  Chunk size:   %s\n", cfg.Bucket.ChunkSize)
	fmt.Printf("  API port:     %d\n", cfg.API.Port)
	fmt.Printf("  Log level:    %s\n", cfg.Logging.Level)

	return nil
}
