package app

import (
	"context"
	"io"
	"os"
)

// RateOptions configure the one-shot rate command.
type RateOptions struct {
	PNGPath string
	CSVPath string
	Out     io.Writer
}

// Rate fetches the feed once and prints the report without starting the bot.
func (a *App) Rate(ctx context.Context, opts RateOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	svc, err := a.newService(nil)
	if err != nil {
		return err
	}

	rep, err := svc.BuildReport(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().Int("points", rep.Series.Len()).Str("last", rep.Summary.LastValue.StringFixed(4)).Msg("rate report ready")
	return writeReport(opts.Out, rep, opts.PNGPath, opts.CSVPath)
}
