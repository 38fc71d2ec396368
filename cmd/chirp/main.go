package main

import (
	"fmt"
	"os"

	"github.com/MosinFAM/chirp/internal/config"
	"github.com/MosinFAM/chirp/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chirp",
	Short: "Chirp - a tiny threaded micro-blogging feed",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, userCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
