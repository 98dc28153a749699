package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Coinbase Exchange API, which requires no
	// credentials for market data.
	DefaultBaseURL = "https://api.exchange.coinbase.com"

	Name = "coinbase-exchange"
)

// Candle represents one OHLCV candle from the candles endpoint.
type Candle struct {
	Timestamp time.Time
	Low       decimal.Decimal
	High      decimal.Decimal
	Open      decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Stats24h represents a product's daily statistics.
type Stats24h struct {
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume decimal.Decimal
}

// Config represents configuration for the exchange client
type Config struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"`
}

// Client is an HTTP client for the exchange's public market-data endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	log        *logrus.Entry
}

// NewClient creates a new exchange client
func NewClient(config *Config, log *logrus.Logger) *Client {
	if config == nil {
		config = &Config{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	rateLimit := config.RateLimit
	if rateLimit == 0 {
		rateLimit = 10 // public endpoints allow 10 requests per second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log:        log.WithField("component", "exchange"),
	}
}

// ListProducts retrieves all tradable products.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.makeRequest(ctx, "/products", nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetTicker retrieves the current spot price for a product.
func (c *Client) GetTicker(ctx context.Context, productID string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("/products/%s/ticker", productID)

	var tickerResp TickerResponse
	if err := c.makeRequest(ctx, endpoint, nil, &tickerResp); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get ticker for %s: %w", productID, err)
	}

	price, err := decimal.NewFromString(tickerResp.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid ticker price for %s: %q", productID, tickerResp.Price)
	}

	return price, nil
}

// GetStats retrieves 24h statistics for a product.
func (c *Client) GetStats(ctx context.Context, productID string) (*Stats24h, error) {
	endpoint := fmt.Sprintf("/products/%s/stats", productID)

	var statsResp StatsResponse
	if err := c.makeRequest(ctx, endpoint, nil, &statsResp); err != nil {
		return nil, fmt.Errorf("failed to get stats for %s: %w", productID, err)
	}

	open, err := decimal.NewFromString(statsResp.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open price for %s: %q", productID, statsResp.Open)
	}

	// The remaining fields default to zero when unparseable; a zero volume
	// later drops the symbol from the banner, so the fallback is logged.
	return &Stats24h{
		Open:   open,
		High:   c.parseStatsField(productID, "high", statsResp.High),
		Low:    c.parseStatsField(productID, "low", statsResp.Low),
		Volume: c.parseStatsField(productID, "volume", statsResp.Volume),
	}, nil
}

func (c *Client) parseStatsField(productID, field, value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"product": productID,
			"field":   field,
			"value":   value,
		}).Debug("unparseable stats field, defaulting to zero")
		return decimal.Zero
	}
	return d
}

// GetCandles retrieves historical candles for a product. The exchange
// returns candles newest-first; callers get them oldest-first.
func (c *Client) GetCandles(ctx context.Context, productID string, from, to time.Time, granularity int) ([]Candle, error) {
	endpoint := fmt.Sprintf("/products/%s/candles", productID)

	params := url.Values{}
	params.Set("granularity", strconv.Itoa(granularity))
	if !from.IsZero() {
		params.Set("start", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		params.Set("end", to.Format(time.RFC3339))
	}

	var candleData [][]float64
	if err := c.makeRequest(ctx, endpoint, params, &candleData); err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", productID, err)
	}

	candles := make([]Candle, 0, len(candleData))
	for _, data := range candleData {
		if len(data) < 6 {
			continue
		}

		candles = append(candles, Candle{
			Timestamp: time.Unix(int64(data[0]), 0),
			Low:       decimal.NewFromFloat(data[1]),
			High:      decimal.NewFromFloat(data[2]),
			Open:      decimal.NewFromFloat(data[3]),
			Close:     decimal.NewFromFloat(data[4]),
			Volume:    decimal.NewFromFloat(data[5]),
		})
	}

	// Oldest first
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles, nil
}

// Ping checks if the exchange is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var products []Product
	if err := c.makeRequest(ctx, "/products", nil, &products); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// makeRequest makes a GET request against the exchange API
func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MarketMoversAPI/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("API error: %s", errorResp.Message)
		}
		return fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
