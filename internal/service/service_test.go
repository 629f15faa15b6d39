package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"yuan-rate-bot/internal/analysis"
	"yuan-rate-bot/internal/fetcher"
	"yuan-rate-bot/internal/series"
)

type stubFetcher struct {
	records []series.RawRecord
	err     error
	from    time.Time
	to      time.Time
}

func (s *stubFetcher) FetchRecords(ctx context.Context, from, to time.Time) ([]series.RawRecord, error) {
	s.from, s.to = from, to
	return s.records, s.err
}

func (s *stubFetcher) Window(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -5), now
}

func (s *stubFetcher) SourceURL() string {
	return "https://feed.test/rates"
}

type countingRenderer struct {
	calls int
}

func (r *countingRenderer) Render(s series.RateSeries) ([]byte, error) {
	r.calls++
	return []byte("png"), nil
}

type stubRecorder struct {
	fetches  int
	fetchErr error
	last     float64
}

func (r *stubRecorder) RecordFetch(elapsed time.Duration, err error) {
	r.fetches++
	r.fetchErr = err
}

func (r *stubRecorder) RecordLastRate(value float64) {
	r.last = value
}

func sixRecords() []series.RawRecord {
	values := []string{"7,10", "7,12", "7,15", "7,20", "7,18", "7,25"}
	out := make([]series.RawRecord, 0, len(values))
	for i, v := range values {
		out = append(out, series.RawRecord{
			Date:  time.Date(2024, time.March, 10+i, 0, 0, 0, 0, time.UTC).Format(series.DateLayout),
			Value: v,
		})
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
}

func TestBuildReportEndToEnd(t *testing.T) {
	f := &stubFetcher{records: sixRecords()}
	r := &countingRenderer{}
	rec := &stubRecorder{}
	svc := New(f, r, rec, Options{Clock: fixedClock}, zerolog.Nop())

	rep, err := svc.BuildReport(context.Background())
	if err != nil {
		t.Fatalf("pipeline should not fail: %v", err)
	}

	sum := rep.Summary
	if !sum.Delta5d.Equal(decimal.RequireFromString("0.15")) || !sum.Delta1d.Equal(decimal.RequireFromString("0.07")) {
		t.Fatalf("wrong deltas: %s / %s", sum.Delta5d, sum.Delta1d)
	}
	if !sum.DailyChange.Equal(decimal.RequireFromString("0.03")) {
		t.Fatalf("wrong daily change: %s", sum.DailyChange)
	}
	if !sum.ForecastNext.Equal(decimal.RequireFromString("7.28")) {
		t.Fatalf("wrong forecast: %s", sum.ForecastNext)
	}
	if sum.Trend5d != analysis.TrendUp || sum.Trend1d != analysis.TrendUp {
		t.Fatalf("expected up: %s/%s", sum.Trend5d, sum.Trend1d)
	}

	if r.calls != 1 || string(rep.Chart) != "png" {
		t.Fatalf("renderer should be called once")
	}
	if !strings.Contains(rep.Caption, "https://feed.test/rates") || !strings.Contains(rep.Caption, "7.2800") {
		t.Fatalf("caption built wrong:\n%s", rep.Caption)
	}
	if !f.to.Equal(fixedClock()) {
		t.Fatalf("window should come from the service clock")
	}
	if rec.fetches != 1 || rec.fetchErr != nil || rec.last != 7.25 {
		t.Fatalf("metrics recorded wrong: %+v", rec)
	}
}

func TestBuildReportFetchError(t *testing.T) {
	f := &stubFetcher{err: &fetcher.FetchError{URL: "https://feed.test", Err: errors.New("connection refused")}}
	r := &countingRenderer{}
	rec := &stubRecorder{}
	svc := New(f, r, rec, Options{Clock: fixedClock}, zerolog.Nop())

	_, err := svc.BuildReport(context.Background())
	if !errors.Is(err, fetcher.ErrFetch) {
		t.Fatalf("fetch error should propagate: %v", err)
	}
	if r.calls != 0 {
		t.Fatal("renderer should not be called")
	}
	if rec.fetchErr == nil {
		t.Fatal("failed fetch should be recorded")
	}
}

func TestBuildReportMalformedRecord(t *testing.T) {
	records := sixRecords()
	records[3].Value = "7,2x"
	r := &countingRenderer{}
	svc := New(&stubFetcher{records: records}, r, nil, Options{Clock: fixedClock}, zerolog.Nop())

	if _, err := svc.BuildReport(context.Background()); !errors.Is(err, series.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord: %v", err)
	}
	if r.calls != 0 {
		t.Fatal("renderer should not be called")
	}
}

func TestBuildReportSinglePointNeverRenders(t *testing.T) {
	r := &countingRenderer{}
	svc := New(&stubFetcher{records: sixRecords()[:1]}, r, nil, Options{Clock: fixedClock}, zerolog.Nop())

	if _, err := svc.BuildReport(context.Background()); !errors.Is(err, analysis.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData: %v", err)
	}
	if r.calls != 0 {
		t.Fatal("single point series should not reach the renderer")
	}
}

func TestReportFromSeriesFixedDivisor(t *testing.T) {
	points, err := series.Build(sixRecords()[:3])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc := New(&stubFetcher{}, &countingRenderer{}, nil, Options{Analyzer: analysis.Analyzer{FixedDivisor: 5}}, zerolog.Nop())

	rep, err := svc.ReportFromSeries(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Summary.DailyChange.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("expected 0.05/5 = 0.01, got %s", rep.Summary.DailyChange)
	}
}
