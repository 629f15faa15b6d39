package fetcher

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/htmlindex"

	"yuan-rate-bot/internal/series"
)

const (
	// DefaultBaseURL is the CBR dynamic rates endpoint.
	DefaultBaseURL = "https://www.cbr.ru/scripts/XML_dynamic.asp"
	// CurrencyCNY is the CBR instrument code for the Chinese yuan.
	CurrencyCNY = "R01375"

	queryDateLayout = "02/01/2006"
	maxBodyBytes    = 1 << 20
)

// CBROptions parameterise the Central Bank feed client.
type CBROptions struct {
	BaseURL      string
	CurrencyCode string
	WindowDays   int
	Timeout      time.Duration
	UserAgent    string
	Location     *time.Location
}

// CBR fetches daily rate dynamics from the Central Bank of Russia.
type CBR struct {
	opts   CBROptions
	client *http.Client
	logger zerolog.Logger
}

// NewCBR constructs a feed client, filling unset options with defaults.
func NewCBR(opts CBROptions, logger zerolog.Logger) *CBR {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CurrencyCode == "" {
		opts.CurrencyCode = CurrencyCNY
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 5
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &CBR{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With().Str("component", "cbr_fetcher").Logger(),
	}
}

// SourceURL is the feed URL quoted in replies.
func (c *CBR) SourceURL() string {
	return c.opts.BaseURL
}

// Window returns the inclusive [from, to] range ending on now's calendar day.
func (c *CBR) Window(now time.Time) (time.Time, time.Time) {
	local := now.In(c.opts.Location)
	to := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.opts.Location)
	return to.AddDate(0, 0, -c.opts.WindowDays), to
}

// FetchRecords downloads the records between from and to, inclusive.
func (c *CBR) FetchRecords(ctx context.Context, from, to time.Time) ([]series.RawRecord, error) {
	endpoint, err := c.buildURL(from, to)
	if err != nil {
		return nil, &FetchError{URL: c.opts.BaseURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "yuanbot/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	records, err := decodeValCurs(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode feed: %w", err)}
	}

	c.logger.Debug().
		Str("currency", c.opts.CurrencyCode).
		Time("from", from).
		Time("to", to).
		Int("records", len(records)).
		Msg("feed fetched")
	return records, nil
}

func (c *CBR) buildURL(from, to time.Time) (string, error) {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("date_req1", from.Format(queryDateLayout))
	q.Set("date_req2", to.Format(queryDateLayout))
	q.Set("VAL_NM_RQ", c.opts.CurrencyCode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type valCurs struct {
	XMLName xml.Name    `xml:"ValCurs"`
	ID      string      `xml:"ID,attr"`
	Records []valRecord `xml:"Record"`
}

type valRecord struct {
	Date    string `xml:"Date,attr"`
	ID      string `xml:"Id,attr"`
	Nominal string `xml:"Nominal"`
	Value   string `xml:"Value"`
}

func decodeValCurs(r io.Reader) ([]series.RawRecord, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var doc valCurs
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty body")
		}
		return nil, err
	}

	records := make([]series.RawRecord, 0, len(doc.Records))
	for _, rec := range doc.Records {
		records = append(records, series.RawRecord{
			Date:    rec.Date,
			Value:   rec.Value,
			Nominal: rec.Nominal,
		})
	}
	return records, nil
}

// charsetReader handles the windows-1251 bodies the feed serves.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

var _ RecordFetcher = (*CBR)(nil)
