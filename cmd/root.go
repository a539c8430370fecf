package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "institution-research",
	Short: "Research employers matching your interests",
	Long: "Finds universities, companies, startups, research institutes and government bodies matching the interests " +
		"in your preferences file, researches each one with a web-grounded model, and writes a deduplicated CSV " +
		"of institutions with their careers pages.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runResearch,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
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
