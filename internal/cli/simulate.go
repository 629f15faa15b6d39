package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"yuan-rate-bot/internal/app"
)

var (
	simulateValues  []string
	simulatePNGPath string
	simulateCSVPath string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Analyze and render a hand-written series without calling the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseValues(simulateValues)
		if err != nil {
			return err
		}
		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			Values:  values,
			PNGPath: simulatePNGPath,
			CSVPath: simulateCSVPath,
			Out:     cmd.OutOrStdout(),
		})
	},
}

func parseValues(raw []string) ([]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("--values must be provided")
	}
	out := make([]decimal.Decimal, 0, len(raw))
	for _, item := range raw {
		v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(item), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", item, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func init() {
	simulateCmd.Flags().StringSliceVar(&simulateValues, "values", nil, "Comma separated rates, oldest first")
	simulateCmd.Flags().StringVar(&simulatePNGPath, "png", "", "Path to write PNG chart")
	simulateCmd.Flags().StringVar(&simulateCSVPath, "csv", "", "Path to write CSV data")
}
