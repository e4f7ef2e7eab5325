package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calllist-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "calllist-cli",
	Short: "Fill phone numbers into an outbound call-list workbook",
	Long:  "Looks up store phone numbers via SerpAPI Google search, rotating across API keys on quota exhaustion, and writes them into the 架電リスト sheet's output column.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Keys commonly live in a local .env during development.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
