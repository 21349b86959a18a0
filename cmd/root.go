package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vnreg-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vnreg-cli",
	Short: "Vietnamese enterprise registry collector",
	Long:  "Collects company records from the thongtindoanhnghiep.co registry API, enriches them from hsctvn.com, and stores the merged records keyed by tax code.",
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
