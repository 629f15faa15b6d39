package series

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the feed's record date format.
const DateLayout = "02.01.2006"

// ErrMalformedRecord matches any MalformedRecordError via errors.Is.
var ErrMalformedRecord = errors.New("series: malformed record")

// MalformedRecordError reports the first record that could not be parsed.
type MalformedRecordError struct {
	Index int
	Field string
	Raw   string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed record #%d: %s %q: %v", e.Index, e.Field, e.Raw, e.Err)
	}
	return fmt.Sprintf("malformed record #%d: %s %q", e.Index, e.Field, e.Raw)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedRecord) match.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Build converts raw records into a RateSeries, keeping feed order.
// It stops at the first malformed record and returns no points in that case.
func Build(records []RawRecord) (RateSeries, error) {
	points := make(RateSeries, 0, len(records))
	for i, rec := range records {
		point, err := parseRecord(i, rec)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

func parseRecord(idx int, rec RawRecord) (RatePoint, error) {
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(rec.Date), time.UTC)
	if err != nil {
		return RatePoint{}, &MalformedRecordError{Index: idx, Field: "date", Raw: rec.Date, Err: err}
	}

	value, err := ParseDecimal(rec.Value)
	if err != nil {
		return RatePoint{}, &MalformedRecordError{Index: idx, Field: "value", Raw: rec.Value, Err: err}
	}
	if !value.IsPositive() {
		return RatePoint{}, &MalformedRecordError{Index: idx, Field: "value", Raw: rec.Value, Err: errors.New("rate must be positive")}
	}

	if strings.TrimSpace(rec.Nominal) != "" {
		nominal, err := ParseDecimal(rec.Nominal)
		if err != nil {
			return RatePoint{}, &MalformedRecordError{Index: idx, Field: "nominal", Raw: rec.Nominal, Err: err}
		}
		if !nominal.IsPositive() {
			return RatePoint{}, &MalformedRecordError{Index: idx, Field: "nominal", Raw: rec.Nominal, Err: errors.New("nominal must be positive")}
		}
		if nominal.GreaterThan(decimal.NewFromInt(1)) {
			value = value.Div(nominal)
		}
	}

	return RatePoint{Date: date, Value: value}, nil
}

// ParseDecimal parses a locale-formatted number that uses a comma as the
// decimal separator, e.g. "7,25".
func ParseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if cleaned == "" || cleaned == "." {
		return decimal.Decimal{}, errors.New("empty number")
	}
	return decimal.NewFromString(cleaned)
}
