package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the base URLs for each external HTTP service. An empty base
// URL disables that client's single method: Analyze then returns an error,
// and every other method fails open (returns a zero result and nil error).
type Config struct {
	ScannerBaseURL     string
	AnalysisBaseURL    string
	SuggestionsBaseURL string
	QuoteBaseURL       string
	CalendarBaseURL    string
	ProfileBaseURL     string
	ChartBaseURL       string
	APIKey             string
}

// HTTPClient implements every clients interface over stdlib net/http with a
// bounded per-call timeout.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	log    zerolog.Logger
}

func NewHTTPClient(cfg Config, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log.With().Str("client", "external_http").Logger(),
	}
}

func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s returned status %d", rawURL, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

// FetchIdeas implements ScannerClient.
func (c *HTTPClient) FetchIdeas(portfolioTickers []string) (*ScannerResult, error) {
	if c.cfg.ScannerBaseURL == "" {
		return &ScannerResult{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	var raw struct {
		DayTrades   []TradeIdea `json:"dayTrades"`
		SwingTrades []TradeIdea `json:"swingTrades"`
		Cached      bool        `json:"cached"`
	}
	reqURL := c.cfg.ScannerBaseURL + "/trade-scanner"
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("fetch scanner ideas: %w", err)
	}
	return &ScannerResult{DayTrades: raw.DayTrades, SwingTrades: raw.SwingTrades, Cached: raw.Cached, Timestamp: time.Now()}, nil
}

// Analyze implements AnalysisClient.
func (c *HTTPClient) Analyze(ticker, mode string) (*AnalysisResult, error) {
	if c.cfg.AnalysisBaseURL == "" {
		return nil, fmt.Errorf("analysis service not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	var raw struct {
		Trade AnalysisResult `json:"trade"`
	}
	reqURL := c.cfg.AnalysisBaseURL + "/trading-signals?" + url.Values{"ticker": {ticker}, "mode": {mode}}.Encode()
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", ticker, err)
	}
	return &raw.Trade, nil
}

// FetchDailySuggestions implements SuggestionsClient. Only cached responses are honoured (§6.3).
func (c *HTTPClient) FetchDailySuggestions() (*DailySuggestions, error) {
	if c.cfg.SuggestionsBaseURL == "" {
		return &DailySuggestions{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var raw struct {
		Cached bool `json:"cached"`
		Data   struct {
			Compounders []SuggestedFind `json:"compounders"`
			GoldMines   []SuggestedFind `json:"goldMines"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.cfg.SuggestionsBaseURL+"/daily-suggestions", &raw); err != nil {
		return nil, fmt.Errorf("fetch daily suggestions: %w", err)
	}
	if !raw.Cached {
		return &DailySuggestions{Cached: false}, nil
	}
	return &DailySuggestions{Cached: true, Compounders: raw.Data.Compounders, GoldMines: raw.Data.GoldMines}, nil
}

// GetQuote implements QuoteClient.
func (c *HTTPClient) GetQuote(ticker string) (*float64, error) {
	if c.cfg.QuoteBaseURL == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var raw struct {
		C float64 `json:"c"`
	}
	reqURL := c.cfg.QuoteBaseURL + "/quote?symbol=" + url.QueryEscape(ticker)
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("get quote %s: %w", ticker, err)
	}
	if raw.C <= 0 {
		return nil, nil
	}
	return &raw.C, nil
}

// GetEarnings implements EarningsClient.
func (c *HTTPClient) GetEarnings(ticker string, from, to time.Time) ([]EarningsEvent, error) {
	if c.cfg.CalendarBaseURL == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var raw []struct {
		Date   string `json:"date"`
		Symbol string `json:"symbol"`
	}
	reqURL := fmt.Sprintf("%s/calendar/earnings?symbol=%s&from=%s&to=%s",
		c.cfg.CalendarBaseURL, url.QueryEscape(ticker), from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("get earnings %s: %w", ticker, err)
	}

	out := make([]EarningsEvent, 0, len(raw))
	for _, r := range raw {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		out = append(out, EarningsEvent{Date: d, Symbol: r.Symbol})
	}
	return out, nil
}

// GetIndustry implements IndustryClient.
func (c *HTTPClient) GetIndustry(ticker string) (string, error) {
	if c.cfg.ProfileBaseURL == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var raw struct {
		FinnhubIndustry string `json:"finnhubIndustry"`
	}
	reqURL := c.cfg.ProfileBaseURL + "/stock/profile2?symbol=" + url.QueryEscape(ticker)
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return "", fmt.Errorf("get industry %s: %w", ticker, err)
	}
	return raw.FinnhubIndustry, nil
}

// GetDailyBars implements BarsClient.
func (c *HTTPClient) GetDailyBars(ticker string, days int) ([]Bar, error) {
	if c.cfg.ChartBaseURL == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var raw struct {
		Closes  []float64 `json:"closes"`
		Volumes []float64 `json:"volumes"`
		Dates   []string  `json:"dates"`
	}
	reqURL := c.cfg.ChartBaseURL + "/chart?symbol=" + url.QueryEscape(ticker) + "&range=1y&interval=1d"
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("get daily bars %s: %w", ticker, err)
	}

	n := len(raw.Closes)
	if n > days {
		raw.Closes = raw.Closes[n-days:]
		raw.Volumes = raw.Volumes[n-days:]
		raw.Dates = raw.Dates[n-days:]
	}
	out := make([]Bar, 0, len(raw.Closes))
	for i, c := range raw.Closes {
		var d time.Time
		if i < len(raw.Dates) {
			d, _ = time.Parse("2006-01-02", raw.Dates[i])
		}
		vol := 0.0
		if i < len(raw.Volumes) {
			vol = raw.Volumes[i]
		}
		out = append(out, Bar{Date: d, Close: c, Volume: vol})
	}
	return out, nil
}
