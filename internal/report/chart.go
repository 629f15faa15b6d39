package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"yuan-rate-bot/internal/series"
)

// ChartRenderer turns a series into an image.
type ChartRenderer interface {
	Render(s series.RateSeries) ([]byte, error)
}

// ChartOptions size and label the rendered chart.
type ChartOptions struct {
	Width  int
	Height int
	Title  string
}

// LineChart renders PNG line charts with go-chart.
type LineChart struct {
	opts ChartOptions
}

// NewLineChart constructs a PNG renderer; zero sizes fall back to 800x600.
func NewLineChart(opts ChartOptions) *LineChart {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.Title == "" {
		opts.Title = "CNY/RUB"
	}
	return &LineChart{opts: opts}
}

// Render draws the series and returns the PNG bytes.
func (l *LineChart) Render(s series.RateSeries) ([]byte, error) {
	if s.Len() == 0 {
		return nil, errors.New("render chart: empty series")
	}

	x := make([]time.Time, s.Len())
	y := make([]float64, s.Len())
	for i, point := range s {
		x[i] = point.Date
		y[i] = point.Value.InexactFloat64()
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}
	dateFormatter := func(v interface{}) string {
		return chart.TimeValueFormatterWithFormat("02.01")(v)
	}

	graph := chart.Chart{
		Title:  l.opts.Title,
		Width:  l.opts.Width,
		Height: l.opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: dateFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "RUB",
			ValueFormatter: rateFormatter,
			Range:          paddedRange(y),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: l.opts.Title,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("c0392b"),
					StrokeWidth: 3,
					DotColor:    drawing.ColorFromHex("c0392b"),
					DotWidth:    4,
				},
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// paddedRange keeps a margin around the data so flat series still have a
// non-zero axis span.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 0.01
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

var _ ChartRenderer = (*LineChart)(nil)
