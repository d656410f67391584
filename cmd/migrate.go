package cmd

import (
	"log"

	"frameline/config"
	"frameline/db"
	"frameline/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the timeline tables (tracks, keyframes) in the configured MySQL database.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(&model.Track{}, &model.Keyframe{}); err != nil {
			log.Fatalf("Failed to migrate models: %v", err)
		}
		log.Println("Migration completed.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
