package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loan-eligibility/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending decision-history migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		switch config.Storage.Driver {
		case repository.DriverSQLite, repository.DriverPostgres:
		default:
			return fmt.Errorf("storage driver %q has no migrations", config.Storage.Driver)
		}

		version, err := repository.Migrate(config.Storage.Driver, config.Storage.DSN, logger)
		if err != nil {
			return err
		}

		logger.Info("migrations applied", zap.String("driver", config.Storage.Driver), zap.Uint("version", version))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
