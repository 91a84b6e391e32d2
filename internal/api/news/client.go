package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "optionsengine/internal/platform/http"
	"optionsengine/models"
)

// maxHeadlines bounds how many articles contribute to the score, which
// also bounds the score itself well inside [-10, +10].
const maxHeadlines = 10

var (
	bearishWords = []string{"crash", "fall", "fear", "drop", "war", "inflation"}
	bullishWords = []string{"rise", "growth", "profit", "gain", "bullish", "record"}
)

// Client fetches market headlines and scores their sentiment.
type Client struct {
	apiKey     string
	baseURL    string
	query      string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new news client.
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	Query          string
	RequestTimeout time.Duration
}

// NewClient creates a new news sentiment client.
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://newsapi.org"
	}
	query := options.Query
	if query == "" {
		query = "nifty OR banknifty OR rbi OR stock market india"
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: baseURL,
		query:   query,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout: options.RequestTimeout,
		}),
		logger: log.With().Str("component", "news_client").Logger(),
	}
}

type newsResponse struct {
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// GetSentiment scores recent headlines into a small integer in
// [-10, +10]. Any failure degrades to 0 (neutral), never an error the
// caller has to handle.
func (c *Client) GetSentiment(ctx context.Context) int {
	endpoint := fmt.Sprintf("%s/v2/everything?q=%s&apiKey=%s",
		c.baseURL, url.QueryEscape(c.query), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("No news data, using neutral sentiment")
		return 0
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("No news data, using neutral sentiment")
		return 0
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("No news data, using neutral sentiment")
		return 0
	}

	var data newsResponse
	if err := json.Unmarshal(body, &data); err != nil || len(data.Articles) == 0 {
		c.logger.Warn().Msg("No articles found, using neutral sentiment")
		return 0
	}

	score := ScoreHeadlines(collectTitles(data, maxHeadlines))
	c.logger.Info().Int("sentiment", score).Msg("News sentiment computed")
	return score
}

// ScoreHeadlines applies the keyword word lists to lowercase titles.
func ScoreHeadlines(titles []string) int {
	score := 0
	for _, title := range titles {
		t := strings.ToLower(title)
		for _, w := range bearishWords {
			if strings.Contains(t, w) {
				score--
				break
			}
		}
		for _, w := range bullishWords {
			if strings.Contains(t, w) {
				score++
				break
			}
		}
	}
	return clamp(score, models.SentimentMin, models.SentimentMax)
}

func collectTitles(data newsResponse, limit int) []string {
	var titles []string
	for _, a := range data.Articles {
		if a.Title == "" {
			continue
		}
		titles = append(titles, a.Title)
		if len(titles) == limit {
			break
		}
	}
	return titles
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
