package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"yuan-rate-bot/internal/series"
)

// SimulateOptions configure an offline report over hand-written values.
type SimulateOptions struct {
	Values  []decimal.Decimal
	PNGPath string
	CSVPath string
	Out     io.Writer
	// Now anchors the last point; defaults to the current time.
	Now time.Time
}

// Simulate runs analysis and rendering over the given values, one per day ending today.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if len(opts.Values) == 0 {
		return errors.New("no values to simulate")
	}
	for _, v := range opts.Values {
		if !v.IsPositive() {
			return fmt.Errorf("value %s must be positive", v)
		}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	svc, err := a.newService(nil)
	if err != nil {
		return err
	}

	rep, err := svc.ReportFromSeries(simulatedSeries(opts.Values, now.In(loc)))
	if err != nil {
		return err
	}
	return writeReport(opts.Out, rep, opts.PNGPath, opts.CSVPath)
}

func simulatedSeries(values []decimal.Decimal, last time.Time) series.RateSeries {
	day := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
	points := make(series.RateSeries, len(values))
	for i, v := range values {
		points[i] = series.RatePoint{
			Date:  day.AddDate(0, 0, i-len(values)+1),
			Value: v,
		}
	}
	return points
}
