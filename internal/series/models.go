package series

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one feed record exactly as received.
type RawRecord struct {
	Date    string
	Value   string
	Nominal string
}

// RatePoint is a single dated exchange rate. Value is always positive.
type RatePoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// RateSeries keeps points in feed order.
type RateSeries []RatePoint

// First returns the oldest point. Callers check Len first.
func (s RateSeries) First() RatePoint {
	return s[0]
}

// Last returns the newest point.
func (s RateSeries) Last() RatePoint {
	return s[len(s)-1]
}

// Len reports the number of points.
func (s RateSeries) Len() int {
	return len(s)
}
