package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recent decisions as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		limit, _ := cmd.Flags().GetInt("limit")

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		deps, err := newComponents(ctx, config, logger)
		if err != nil {
			logger.Error("initializing", zap.Error(err))
			return err
		}
		defer deps.Close()

		records, err := deps.decisions.History(ctx, limit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "number of decisions to print")
}
