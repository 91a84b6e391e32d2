package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "optionsengine/internal/platform/http"
	"optionsengine/models"
)

// datetimeLayouts are the timestamp formats the time_series endpoint
// returns depending on interval.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Client is the Twelve Data API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Twelve Data client.
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new Twelve Data API client.
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: baseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
		logger: log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetCandles fetches candle data, oldest first. Rows with non-numeric
// price fields are discarded rather than failing the whole series.
func (c *Client) GetCandles(ctx context.Context, symbol string, interval string, count int) ([]models.Candle, error) {
	endpoint := fmt.Sprintf(
		"%s/time_series?symbol=%s&interval=%s&outputsize=%d&apikey=%s",
		c.baseURL,
		url.QueryEscape(symbol),
		interval,
		count,
		c.apiKey,
	)

	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).Msg("Fetching candles")

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: time_series for %s: %v", models.ErrUpstreamUnavailable, symbol, err)
	}

	if strings.Contains(string(body), `"status":"error"`) {
		c.logger.Error().Str("response", string(body)).Msg("Twelve Data API error")
		return nil, fmt.Errorf("%w: Twelve Data API error", models.ErrUpstreamUnavailable)
	}

	var data models.TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing time_series JSON")
		return nil, fmt.Errorf("%w: parsing time_series: %v", models.ErrInvalidValue, err)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return nil, fmt.Errorf("%w: empty data returned for %s", models.ErrUpstreamUnavailable, symbol)
	}

	// Sort by datetime, oldest first, for proper calculations.
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	var candles []models.Candle
	for _, v := range data.Values {
		candle, err := parseCandle(v.Datetime, v.Open, v.High, v.Low, v.Close, v.Volume)
		if err != nil {
			c.logger.Warn().Err(err).Str("datetime", v.Datetime).Msg("Discarding malformed candle")
			continue
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no parseable candles for %s", models.ErrInvalidValue, symbol)
	}

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

// quoteResponse is the slice of the quote payload the VIX fallback
// needs.
type quoteResponse struct {
	Close  string `json:"close"`
	Status string `json:"status,omitempty"`
}

// GetQuote fetches the latest close for a symbol. Used as the
// volatility-index fallback when the NSE reading is unavailable.
func (c *Client) GetQuote(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s&apikey=%s", c.baseURL, url.QueryEscape(symbol), c.apiKey)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("%w: quote for %s: %v", models.ErrUpstreamUnavailable, symbol, err)
	}

	var data quoteResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("%w: parsing quote: %v", models.ErrInvalidValue, err)
	}
	if data.Status == "error" || data.Close == "" {
		return 0, fmt.Errorf("%w: no close in quote for %s", models.ErrUpstreamUnavailable, symbol)
	}

	value, err := strconv.ParseFloat(data.Close, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: quote close %q: %v", models.ErrInvalidValue, data.Close, err)
	}

	return value, nil
}

// VIXQuote adapts the quote endpoint to a volatility-index source,
// used as the fallback when the NSE reading is unavailable.
type VIXQuote struct {
	Client *Client
	Symbol string
}

// GetVIX fetches the volatility index via the quote endpoint.
func (v VIXQuote) GetVIX(ctx context.Context) (float64, error) {
	symbol := v.Symbol
	if symbol == "" {
		symbol = "INDIAVIX"
	}
	return v.Client.GetQuote(ctx, symbol)
}

func parseCandle(datetime, open, high, low, closeP, volume string) (models.Candle, error) {
	candle := models.Candle{Datetime: datetime}

	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, datetime); err == nil {
			candle.Timestamp = ts
			break
		}
	}
	if candle.Timestamp.IsZero() {
		return candle, fmt.Errorf("%w: unparseable datetime %q", models.ErrInvalidValue, datetime)
	}

	var err error
	if candle.Open, err = strconv.ParseFloat(open, 64); err != nil {
		return candle, fmt.Errorf("%w: open %q", models.ErrInvalidValue, open)
	}
	if candle.High, err = strconv.ParseFloat(high, 64); err != nil {
		return candle, fmt.Errorf("%w: high %q", models.ErrInvalidValue, high)
	}
	if candle.Low, err = strconv.ParseFloat(low, 64); err != nil {
		return candle, fmt.Errorf("%w: low %q", models.ErrInvalidValue, low)
	}
	if candle.Close, err = strconv.ParseFloat(closeP, 64); err != nil {
		return candle, fmt.Errorf("%w: close %q", models.ErrInvalidValue, closeP)
	}
	if volume != "" {
		// Volume is optional for indices; a bad value downgrades to 0.
		if v, err := strconv.ParseInt(volume, 10, 64); err == nil {
			candle.Volume = v
		}
	}

	return candle, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}
