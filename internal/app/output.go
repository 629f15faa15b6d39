package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"yuan-rate-bot/internal/series"
	"yuan-rate-bot/internal/service"
)

// writeReport prints the series table and caption, then writes the requested files.
func writeReport(out io.Writer, rep service.Report, pngPath, csvPath string) error {
	printSeries(out, rep.Series)
	fmt.Fprintln(out)
	fmt.Fprintln(out, rep.Caption)

	if pngPath != "" {
		if err := writeFile(pngPath, rep.Chart); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
	}
	if csvPath != "" {
		if err := writeSeriesCSV(csvPath, rep.Series); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	return nil
}

func printSeries(out io.Writer, points series.RateSeries) {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tCNY/RUB")
	for _, p := range points {
		fmt.Fprintf(writer, "%s\t%s\n", p.Date.Format(series.DateLayout), p.Value.StringFixed(4))
	}
	writer.Flush()
}

func writeSeriesCSV(path string, points series.RateSeries) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := writer.Write([]string{p.Date.Format("2006-01-02"), p.Value.String()}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
