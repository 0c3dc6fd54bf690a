package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"readlog/internal/db"
	"readlog/internal/services"

	"github.com/spf13/cobra"
)

var exportOut string

// exportCmd writes the audit/backup CSV mirror of every post
var exportCmd = &cobra.Command{
	Use:   "export-posts",
	Short: "Export all posts as CSV",
	Long: `Write every post, newest first, as CSV.

Examples:
  readlog export-posts                      # data/posts.csv
  readlog export-posts --out -              # stdout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Open(&cfg.DB)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "-" {
			if err := os.MkdirAll(filepath.Dir(exportOut), 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOut, err)
			}
			defer f.Close()
			w = f
		}

		n, err := services.ExportPostsCSV(cmd.Context(), conn, w)
		if err != nil {
			return err
		}
		slog.Info("Posts exported", "rows", n, "out", exportOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", filepath.Join("data", "posts.csv"), "Output file, - for stdout")
}
