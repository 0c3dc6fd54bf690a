package commands

import (
	"fmt"
	"os"

	"readlog/internal/config"
	"readlog/internal/logger"

	"github.com/spf13/cobra"
)

var cfg *config.Config

// rootCmd represents the base command; with no subcommand it serves HTTP.
var rootCmd = &cobra.Command{
	Use:   "readlog",
	Short: "ReadLog - book reading social feed",
	Long: `ReadLog serves the JSON API of the book reading feed.

Examples:
  readlog                           # same as "readlog serve"
  readlog migrate                   # create or update tables and exit
  readlog export-posts --out p.csv  # write the CSV mirror of all posts`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger.Init(cfg.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
