package cli

import (
	"github.com/spf13/cobra"

	"yuan-rate-bot/internal/app"
)

var (
	ratePNGPath string
	rateCSVPath string
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Fetch the current rate once and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Rate(cmd.Context(), app.RateOptions{
			PNGPath: ratePNGPath,
			CSVPath: rateCSVPath,
			Out:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rateCmd.Flags().StringVar(&ratePNGPath, "png", "", "Path to write PNG chart")
	rateCmd.Flags().StringVar(&rateCSVPath, "csv", "", "Path to write CSV data")
}
