package main

import (
	"fmt"
	"os"
	"time"

	"gamesup-server/config"
	"gamesup-server/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"
)

const versionTimeFormat = "20060102150405"

func main() {
	rootCmd := &cobra.Command{Use: "migrate"}
	rootCmd.AddCommand(
		createMigrationCommand(),
		migrateUpCommand(),
		migrateDownCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}

func createMigrationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-create [name]",
		Short: "create sql migrations",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			version := time.Now().Format(versionTimeFormat)
			name := args[0]
			up := fmt.Sprintf("migrations/%s_%s.up.sql", version, name)
			down := fmt.Sprintf("migrations/%s_%s.down.sql", version, name)

			if err := os.WriteFile(up, []byte{}, 0644); err != nil {
				panic(err)
			}
			if err := os.WriteFile(down, []byte{}, 0644); err != nil {
				panic(err)
			}

			fmt.Println("Created SQL up script:", up)
			fmt.Println("Created SQL down script:", down)
		},
	}
}

func newMigrator() *migrate.Migrate {
	cfg := config.Load()
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		panic(err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.Database.URL)
	if err != nil {
		panic(err)
	}
	return m
}

func migrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up",
		Short: "migrate all the way up",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			err := newMigrator().Up()
			if err == migrate.ErrNoChange {
				fmt.Println("No change in migration")
				return
			}
			if err != nil {
				panic(err)
			}
			fmt.Println("Migrated up")
		},
	}
}

func migrateDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-down",
		Short: "roll back one migration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			err := newMigrator().Steps(-1)
			if err == migrate.ErrNoChange {
				fmt.Println("No change in migration")
				return
			}
			if err != nil {
				panic(err)
			}
			fmt.Println("Rolled back one migration")
		},
	}
}
