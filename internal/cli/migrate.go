package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables (postgres) or indexes (mongo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			if err := a.repoManager.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			a.logger.Info("Migration complete", "store", a.cfg.StoreBackend)
			return nil
		},
	}
}
