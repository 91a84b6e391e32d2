package nse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionsengine/models"
)

func testClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		BaseURL:        baseURL,
		RequestTimeout: 500 * time.Millisecond,
	})
}

// chainServer serves the homepage (for the session bootstrap) plus the
// given option-chain payload.
func chainServer(t *testing.T, chainBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "nseappid", Value: "test"})
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/api/option-chain-indices", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("nseappid"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chainBody)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// chainPayload builds an option-chain body with n strikes, each carrying
// the given per-strike call and put open interest.
func chainPayload(spot float64, n int, callOI, putOI int64) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(
			`{"strikePrice": %d, "CE": {"openInterest": %d}, "PE": {"openInterest": %d}}`,
			22000+i*50, callOI, putOI)
	}
	return fmt.Sprintf(`{"records": {"underlyingValue": %v, "data": [%s]}}`,
		spot, strings.Join(rows, ","))
}

func TestGetOptionChain(t *testing.T) {
	server := chainServer(t, chainPayload(22512.35, 5, 100, 150))

	chain, err := testClient(server.URL).GetOptionChain(context.Background(), "NIFTY")
	require.NoError(t, err)

	assert.Equal(t, "NIFTY", chain.Symbol)
	assert.InDelta(t, 22512.35, chain.SpotPrice, 1e-9)
	assert.Len(t, chain.Strikes, 5)
	assert.InDelta(t, 1.5, chain.PCR, 1e-9)
}

func TestGetOptionChainPCRUsesNearestStrikesOnly(t *testing.T) {
	// 15 rows, but only the first 10 count. Put OI 150 vs call OI 100
	// on every counted row keeps the ratio at 1.5 regardless of the
	// trailing rows.
	body := chainPayload(22500, 15, 100, 150)
	server := chainServer(t, body)

	chain, err := testClient(server.URL).GetOptionChain(context.Background(), "NIFTY")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, chain.PCR, 1e-9)
}

func TestGetOptionChainZeroCallOIIsNeutral(t *testing.T) {
	server := chainServer(t, chainPayload(22500, 5, 0, 9000))

	chain, err := testClient(server.URL).GetOptionChain(context.Background(), "NIFTY")
	require.NoError(t, err)
	assert.Equal(t, 1.0, chain.PCR)
}

func TestGetOptionChainMissingLegs(t *testing.T) {
	// One-sided rows parse with the absent leg counted as zero OI.
	body := `{"records": {"underlyingValue": 22500, "data": [
		{"strikePrice": 22400, "CE": {"openInterest": 100}},
		{"strikePrice": 22500, "PE": {"openInterest": 50}}
	]}}`
	server := chainServer(t, body)

	chain, err := testClient(server.URL).GetOptionChain(context.Background(), "NIFTY")
	require.NoError(t, err)

	assert.Equal(t, int64(100), chain.Strikes[0].CallOI)
	assert.Zero(t, chain.Strikes[0].PutOI)
	assert.Equal(t, int64(50), chain.Strikes[1].PutOI)
	assert.InDelta(t, 0.5, chain.PCR, 1e-9)
}

func TestGetOptionChainNoUnderlying(t *testing.T) {
	server := chainServer(t, `{"records": {"underlyingValue": 0, "data": []}}`)

	_, err := testClient(server.URL).GetOptionChain(context.Background(), "NIFTY")
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestGetOptionChainMalformedJSON(t *testing.T) {
	server := chainServer(t, `<html>maintenance page</html>`)

	_, err := testClient(server.URL).GetOptionChain(context.Background(), "NIFTY")
	assert.ErrorIs(t, err, models.ErrInvalidValue)
}

func vixServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/api/allIndices", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGetVIX(t *testing.T) {
	server := vixServer(t, `{"data": [
		{"index": "NIFTY 50", "last": 22500.1},
		{"index": "INDIA VIX", "last": 13.42}
	]}`)

	vix, err := testClient(server.URL).GetVIX(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 13.42, vix, 1e-9)
}

func TestGetVIXMissingIndex(t *testing.T) {
	server := vixServer(t, `{"data": [{"index": "NIFTY 50", "last": 22500.1}]}`)

	_, err := testClient(server.URL).GetVIX(context.Background())
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestGetVIXRejectsNonPositiveReading(t *testing.T) {
	server := vixServer(t, `{"data": [{"index": "INDIA VIX", "last": 0}]}`)

	_, err := testClient(server.URL).GetVIX(context.Background())
	assert.ErrorIs(t, err, models.ErrInvalidValue)
}

func TestBootstrapRunsOnce(t *testing.T) {
	var homeHits int

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		homeHits++
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/api/allIndices", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"index": "INDIA VIX", "last": 12}]}`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetVIX(context.Background())
	require.NoError(t, err)
	_, err = client.GetVIX(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, homeHits)
}

func TestConcurrentFetchesBootstrapOnce(t *testing.T) {
	var homeHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		homeHits.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "nseappid", Value: "test"})
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/api/option-chain-indices", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chainPayload(22500, 3, 100, 150))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	// One client shared by concurrent per-instrument fetches, the way
	// the analyzer drives it.
	client := NewClient(ClientOptions{
		BaseURL:        server.URL,
		RequestTimeout: 2 * time.Second,
		RequestsPerSec: 50,
	})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.GetOptionChain(context.Background(), "NIFTY")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), homeHits.Load())
}

func TestGetOptionChainServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetOptionChain(context.Background(), "NIFTY")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUpstreamUnavailable))
}
