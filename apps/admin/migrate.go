package main

import (
	"github.com/spf13/cobra"

	"github.com/plataforma-apa/apa/storage/database"
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, up-to, down, status..) on the embedded migrations",
		// goose parses its own arguments
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			return database.RunMigrations(cli.db, args[0], args[1:]...)
		},
	}
}
