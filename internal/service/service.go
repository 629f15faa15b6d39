package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"yuan-rate-bot/internal/analysis"
	"yuan-rate-bot/internal/fetcher"
	"yuan-rate-bot/internal/report"
	"yuan-rate-bot/internal/series"
)

// Report is everything a reply needs.
type Report struct {
	Series  series.RateSeries
	Summary analysis.Summary
	Chart   []byte
	Caption string
}

// WindowFetcher is a RecordFetcher that also knows its window and source URL.
type WindowFetcher interface {
	fetcher.RecordFetcher
	Window(now time.Time) (time.Time, time.Time)
	SourceURL() string
}

// Recorder receives pipeline metrics. A nil Recorder is allowed.
type Recorder interface {
	RecordFetch(elapsed time.Duration, err error)
	RecordLastRate(value float64)
}

// Options tune the pipeline.
type Options struct {
	Analyzer analysis.Analyzer
	Clock    func() time.Time
}

// Service runs fetch, build, analyze and render for one request.
type Service struct {
	fetcher  WindowFetcher
	renderer report.ChartRenderer
	analyzer analysis.Analyzer
	metrics  Recorder
	clock    func() time.Time
	logger   zerolog.Logger
}

// New constructs the report pipeline.
func New(f WindowFetcher, renderer report.ChartRenderer, metrics Recorder, opts Options, logger zerolog.Logger) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		fetcher:  f,
		renderer: renderer,
		analyzer: opts.Analyzer,
		metrics:  metrics,
		clock:    clock,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// BuildReport fetches the current window and produces a chart with caption.
func (s *Service) BuildReport(ctx context.Context) (Report, error) {
	from, to := s.fetcher.Window(s.clock())

	started := time.Now()
	records, err := s.fetcher.FetchRecords(ctx, from, to)
	if s.metrics != nil {
		s.metrics.RecordFetch(time.Since(started), err)
	}
	if err != nil {
		return Report{}, fmt.Errorf("fetch rates: %w", err)
	}

	return s.ReportFromRecords(records)
}

// ReportFromRecords runs the offline part of the pipeline.
func (s *Service) ReportFromRecords(records []series.RawRecord) (Report, error) {
	points, err := series.Build(records)
	if err != nil {
		return Report{}, fmt.Errorf("build series: %w", err)
	}

	return s.ReportFromSeries(points)
}

// ReportFromSeries analyzes and renders an already built series.
func (s *Service) ReportFromSeries(points series.RateSeries) (Report, error) {
	summary, err := s.analyzer.Analyze(points)
	if err != nil {
		return Report{}, fmt.Errorf("analyze series: %w", err)
	}

	img, err := s.renderer.Render(points)
	if err != nil {
		return Report{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordLastRate(summary.LastValue.InexactFloat64())
	}

	s.logger.Info().
		Int("points", points.Len()).
		Str("last", summary.LastValue.StringFixed(report.DisplayPlaces)).
		Str("delta5d", summary.Delta5d.String()).
		Str("forecast", summary.ForecastNext.StringFixed(report.DisplayPlaces)).
		Msg("report built")

	return Report{
		Series:  points,
		Summary: summary,
		Chart:   img,
		Caption: report.FormatCaption(s.fetcher.SourceURL(), summary),
	}, nil
}
