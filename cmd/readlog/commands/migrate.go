package commands

import (
	"readlog/internal/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Open(&cfg.DB)
		if err != nil {
			return err
		}
		return db.Migrate(conn)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
