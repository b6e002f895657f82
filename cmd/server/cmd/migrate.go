package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ellvinib/lifeOS-sub004/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Run:   runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	db, err := repository.Open(cfg.Database)
	exitOnError(err, "failed to connect to database")
	exitOnError(repository.AutoMigrate(db), "failed to run migrations")

	fmt.Println("migrations applied")
}
