package cmd

import (
	"fmt"
	"os"

	"github.com/farmlink/authcore/internal/envconfig"
	"github.com/spf13/cobra"
)

var (
	settings *envconfig.Settings
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "authd",
	Short: "Credential and session-token service for the marketplace",
	Long: `authd registers farmers, vets and customers, issues HS256 session tokens,
and answers authorization checks. Configuration comes from the environment,
optionally seeded from .env files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = envconfig.Load(envFiles...)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
