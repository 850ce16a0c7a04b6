package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hession/protomate/internal/cli"
	"github.com/hession/protomate/internal/config"
	"github.com/hession/protomate/internal/logger"
)

var (
	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "protomate",
		Short: "Protomate - Conversational UI Prototyping",
		Long: `Protomate turns plain-language descriptions into live React prototypes.

It can:
  • Build and iterate on UI prototypes through conversation
  • Read and write files inside a sandboxed project directory
  • Remember your preferences across projects
  • Resume earlier prototypes with their full context`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := logger.Init(logger.Config{
				LogDir:  config.LogDir(),
				Level:   logger.ParseLevel(cfg.Logging.Level),
				MaxDays: cfg.Logging.MaxDays,
			}); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
			}
			defer logger.Close()

			logConfigInfo(cfg)

			// Start CLI
			return cli.Run(cfg)
		},
	}

	// config subcommand
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}

	// version subcommand
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Protomate v%s\n", version)
		},
	}

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// logConfigInfo records the effective configuration at startup with
// the API key redacted
func logConfigInfo(cfg *config.Config) {
	apiKey := cfg.Model.APIKey
	if len(apiKey) > 8 {
		apiKey = apiKey[:4] + "****" + apiKey[len(apiKey)-4:]
	} else if apiKey != "" {
		apiKey = "****"
	}

	logger.Info("Starting Protomate: model=%s base_url=%s api_key=%s projects_root=%s memory_dir=%s",
		cfg.Model.Model, cfg.Model.BaseURL, apiKey, cfg.Projects.RootDir, cfg.Memory.DataDir)
}
