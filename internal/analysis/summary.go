package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"yuan-rate-bot/internal/series"
)

// MinPoints is the shortest series the analyzer accepts.
const MinPoints = 2

// ErrInsufficientData matches any InsufficientDataError via errors.Is.
var ErrInsufficientData = errors.New("analysis: insufficient data")

// InsufficientDataError is returned for series shorter than MinPoints.
type InsufficientDataError struct {
	Points int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d points, got %d", MinPoints, e.Points)
}

// Is lets errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Trend is a coarse direction of a rate delta.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Summary holds the figures shown under the chart.
type Summary struct {
	Trend5d      Trend
	Trend1d      Trend
	Delta5d      decimal.Decimal
	Delta1d      decimal.Decimal
	DailyChange  decimal.Decimal
	LastValue    decimal.Decimal
	ForecastNext decimal.Decimal
}

// Analyzer computes summaries. The zero value divides the window delta by the
// calendar days between the first and last point; FixedDivisor > 0 pins the
// divisor instead.
type Analyzer struct {
	FixedDivisor int
}

// Analyze computes a Summary with the default divisor policy.
func Analyze(s series.RateSeries) (Summary, error) {
	return Analyzer{}.Analyze(s)
}

// Analyze computes trend, deltas and a one-step linear forecast.
func (a Analyzer) Analyze(s series.RateSeries) (Summary, error) {
	if s.Len() < MinPoints {
		return Summary{}, &InsufficientDataError{Points: s.Len()}
	}

	last := s.Last().Value
	prev := s[s.Len()-2].Value

	delta5d := last.Sub(s.First().Value)
	delta1d := last.Sub(prev)
	daily := delta5d.Div(decimal.NewFromInt(int64(a.divisor(s))))

	return Summary{
		Trend5d:      classify(delta5d),
		Trend1d:      classify(delta1d),
		Delta5d:      delta5d,
		Delta1d:      delta1d,
		DailyChange:  daily,
		LastValue:    last,
		ForecastNext: last.Add(daily),
	}, nil
}

func (a Analyzer) divisor(s series.RateSeries) int {
	if a.FixedDivisor > 0 {
		return a.FixedDivisor
	}
	return ElapsedDays(s)
}

// ElapsedDays counts calendar days from the first to the last point, at least 1.
// Feed gaps (weekends, holidays) count as elapsed days.
func ElapsedDays(s series.RateSeries) int {
	if s.Len() < 2 {
		return 1
	}
	days := int(math.Round(s.Last().Date.Sub(s.First().Date).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// classify treats a zero delta as down.
func classify(d decimal.Decimal) Trend {
	if d.IsPositive() {
		return TrendUp
	}
	return TrendDown
}
