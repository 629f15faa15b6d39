package series

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuildSingleRecord(t *testing.T) {
	got, err := Build([]RawRecord{{Date: "15.03.2024", Value: "7,25"}})
	if err != nil {
		t.Fatalf("valid record should not fail: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", got.Len())
	}

	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got[0].Date.Equal(want) {
		t.Fatalf("date %s, want %s", got[0].Date, want)
	}
	if !got[0].Value.Equal(decimal.RequireFromString("7.25")) {
		t.Fatalf("value %s, want 7.25", got[0].Value)
	}
}

func TestBuildKeepsFeedOrder(t *testing.T) {
	got, err := Build([]RawRecord{
		{Date: "16.03.2024", Value: "7,30"},
		{Date: "15.03.2024", Value: "7,25"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.First().Date.Day() != 16 || got.Last().Date.Day() != 15 {
		t.Fatalf("feed order should be kept: %+v", got)
	}
}

func TestBuildMalformedValueAbortsBatch(t *testing.T) {
	cases := []string{"", "abc", "7,2a", ",", "0", "-1,5"}
	for _, raw := range cases {
		got, err := Build([]RawRecord{
			{Date: "14.03.2024", Value: "7,20"},
			{Date: "15.03.2024", Value: raw},
			{Date: "16.03.2024", Value: "7,30"},
		})
		if err == nil {
			t.Fatalf("value %q should fail", raw)
		}
		if got != nil {
			t.Fatalf("no partial series on error, got %v", got)
		}

		var malformed *MalformedRecordError
		if !errors.As(err, &malformed) {
			t.Fatalf("expected MalformedRecordError, got %T", err)
		}
		if malformed.Index != 1 || malformed.Field != "value" {
			t.Fatalf("wrong error position: %+v", malformed)
		}
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatal("errors.Is(err, ErrMalformedRecord) should be true")
		}
	}
}

func TestBuildMalformedDate(t *testing.T) {
	_, err := Build([]RawRecord{{Date: "2024-03-15", Value: "7,25"}})

	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) || malformed.Field != "date" {
		t.Fatalf("expected a date error, got %v", err)
	}
}

func TestBuildDividesByNominal(t *testing.T) {
	got, err := Build([]RawRecord{{Date: "15.03.2024", Value: "72,50", Nominal: "10"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0].Value.Equal(decimal.RequireFromString("7.25")) {
		t.Fatalf("value should be per currency unit, got %s", got[0].Value)
	}

	if _, err := Build([]RawRecord{{Date: "15.03.2024", Value: "7,25", Nominal: "x"}}); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("bad nominal should be a MalformedRecordError: %v", err)
	}
}

func TestBuildEmpty(t *testing.T) {
	got, err := Build(nil)
	if err != nil {
		t.Fatalf("empty input is not an error: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("expected an empty series")
	}
}
