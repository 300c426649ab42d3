package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"settingscatalog/internal/repository/sqlite"
	"settingscatalog/internal/service"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save the built catalog to a SQLite database",
		Long: `Save the built catalog to a SQLite database.

The database holds one snapshot; saving replaces whatever was stored before.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				dbPath = a.cfg.Database.Path
			}

			svc, err := a.openCatalog(service.Options{})
			if err != nil {
				return err
			}

			store, err := sqlite.New(dbPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", dbPath, err)
			}
			defer store.Close()

			if err := svc.SaveSnapshot(cmd.Context(), store); err != nil {
				return err
			}

			n, err := store.CountEntries(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %d entries to %s\n", n, dbPath)
			return err
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides database.path)")
	return cmd
}
