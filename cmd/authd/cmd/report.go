package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the security posture of the configured engine",
	Long:  `Builds the engine from the current configuration and prints its SecurityReport as JSON. The signing secret itself is never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, err := buildEngine(cmd.Context(), settings, zap.NewNop())
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := json.MarshalIndent(engine.SecurityReport(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
