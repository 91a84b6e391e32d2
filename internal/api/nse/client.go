package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "optionsengine/internal/platform/http"
	"optionsengine/models"
)

// nearestStrikes is how many rows of the chain (closest to the money)
// the put/call ratio is computed over.
const nearestStrikes = 10

// browserHeaders mimic a regular browser session; the NSE API rejects
// bare clients.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://www.nseindia.com/",
	"Connection":      "keep-alive",
}

// Client fetches option-chain and index data from the NSE site. Safe
// for concurrent use; the session bootstrap runs at most once.
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger

	mu           sync.Mutex
	bootstrapped bool
}

// ClientOptions holds options for creating a new NSE client.
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new NSE client with a cookie-backed session.
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://www.nseindia.com"
	}

	return &Client{
		baseURL: baseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			WithCookies:    true,
		}),
		logger: log.With().Str("component", "nse_client").Logger(),
	}
}

// optionChainResponse is the raw option-chain-indices payload. Only the
// fields the engine consumes are declared; everything else is dropped
// at this boundary.
type optionChainResponse struct {
	Records struct {
		UnderlyingValue float64 `json:"underlyingValue"`
		Data            []struct {
			StrikePrice float64 `json:"strikePrice"`
			CE          *struct {
				OpenInterest int64 `json:"openInterest"`
			} `json:"CE"`
			PE *struct {
				OpenInterest int64 `json:"openInterest"`
			} `json:"PE"`
		} `json:"data"`
	} `json:"records"`
}

// allIndicesResponse is the slice of the allIndices payload holding the
// volatility index.
type allIndicesResponse struct {
	Data []struct {
		Index string  `json:"index"`
		Last  float64 `json:"last"`
	} `json:"data"`
}

// Bootstrap visits the NSE homepage so the session picks up the
// cookies the API endpoints require. Called lazily before the first
// data request; concurrent callers serialize on the mutex, and a
// failed visit is retried by the next caller.
func (c *Client) Bootstrap(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bootstrapped {
		return nil
	}

	c.logger.Debug().Msg("Initializing NSE session")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating bootstrap request: %w", err)
	}
	applyHeaders(req)

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("NSE session bootstrap failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.bootstrapped = true
	return nil
}

// GetOptionChain fetches the option chain for an index and computes
// the put/call ratio over the nearest strikes.
func (c *Client) GetOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	if err := c.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/api/option-chain-indices?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	c.logger.Debug().Str("symbol", symbol).Msg("Fetching option chain")

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: option chain for %s: %v", models.ErrUpstreamUnavailable, symbol, err)
	}

	var data optionChainResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("Error parsing option chain JSON")
		return nil, fmt.Errorf("%w: parsing option chain: %v", models.ErrInvalidValue, err)
	}

	spot := data.Records.UnderlyingValue
	if spot <= 0 || math.IsNaN(spot) {
		return nil, fmt.Errorf("%w: no underlying value for %s", models.ErrUpstreamUnavailable, symbol)
	}

	chain := &models.OptionChain{
		Symbol:     symbol,
		SpotPrice:  spot,
		FetchedAt:  time.Now(),
		NearestPCR: nearestStrikes,
	}

	var totalCallOI, totalPutOI int64
	for i, row := range data.Records.Data {
		s := models.StrikeOI{StrikePrice: row.StrikePrice}
		if row.CE != nil {
			s.CallOI = row.CE.OpenInterest
		}
		if row.PE != nil {
			s.PutOI = row.PE.OpenInterest
		}
		chain.Strikes = append(chain.Strikes, s)

		if i < nearestStrikes {
			totalCallOI += s.CallOI
			totalPutOI += s.PutOI
		}
	}

	// Zero call OI means the ratio is undefined; treat as neutral.
	if totalCallOI > 0 {
		chain.PCR = math.Round(float64(totalPutOI)/float64(totalCallOI)*100) / 100
	} else {
		chain.PCR = 1.0
	}

	c.logger.Info().
		Str("symbol", symbol).
		Float64("price", chain.SpotPrice).
		Float64("pcr", chain.PCR).
		Msg("Fetched option chain")

	return chain, nil
}

// GetVIX fetches the India VIX reading from the allIndices endpoint.
func (c *Client) GetVIX(ctx context.Context) (float64, error) {
	if err := c.Bootstrap(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	c.logger.Debug().Msg("Fetching India VIX")

	body, err := c.get(ctx, c.baseURL+"/api/allIndices")
	if err != nil {
		return 0, fmt.Errorf("%w: allIndices: %v", models.ErrUpstreamUnavailable, err)
	}

	var data allIndicesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("%w: parsing allIndices: %v", models.ErrInvalidValue, err)
	}

	for _, item := range data.Data {
		if item.Index == "INDIA VIX" {
			if item.Last <= 0 || math.IsNaN(item.Last) {
				return 0, fmt.Errorf("%w: VIX reading %v", models.ErrInvalidValue, item.Last)
			}
			c.logger.Info().Float64("vix", item.Last).Msg("Fetched India VIX")
			return item.Last, nil
		}
	}

	return 0, fmt.Errorf("%w: INDIA VIX not present in allIndices", models.ErrUpstreamUnavailable)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	applyHeaders(req)

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

func applyHeaders(req *http.Request) {
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
}
