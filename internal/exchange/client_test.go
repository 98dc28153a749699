package exchange

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(&Config{BaseURL: server.URL, RateLimit: 1000}, testLogger())
	return client, server
}

// Test ListProducts
func TestClient_ListProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the product list", func(t *testing.T) {
		client, server := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products", r.URL.Path)
			w.Write([]byte(`[
				{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","status":"online"},
				{"id":"ETH-EUR","base_currency":"ETH","quote_currency":"EUR","status":"online"}
			]`))
		}))
		defer server.Close()

		products, err := client.ListProducts(ctx)

		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "BTC-USD", products[0].ID)
		assert.Equal(t, "USD", products[0].QuoteCurrency)
		assert.Equal(t, "online", products[0].Status)
	})

	t.Run("surfaces API error messages", func(t *testing.T) {
		client, server := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"rate limit exceeded"}`))
		}))
		defer server.Close()

		_, err := client.ListProducts(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit exceeded")
	})
}

// Test GetTicker
func TestClient_GetTicker(t *testing.T) {
	ctx := context.Background()

	t.Run("parses the price", func(t *testing.T) {
		client, server := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products/BTC-USD/ticker", r.URL.Path)
			w.Write([]byte(`{"trade_id":123,"price":"50123.45","size":"0.01","volume":"1000"}`))
		}))
		defer server.Close()

		price, err := client.GetTicker(ctx, "BTC-USD")

		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromFloat(50123.45)))
	})

	t.Run("rejects malformed prices", func(t *testing.T) {
		client, server := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"price":"not-a-number"}`))
		}))
		defer server.Close()

		_, err := client.GetTicker(ctx, "BTC-USD")
		assert.Error(t, err)
	})
}

// Test GetStats
func TestClient_GetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("parses all fields", func(t *testing.T) {
		client, server := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products/ETH-USD/stats", r.URL.Path)
			w.Write([]byte(`{"open":"3000","high":"3200","low":"2900","volume":"150000","last":"3100"}`))
		}))
		defer server.Close()

		stats, err := client.GetStats(ctx, "ETH-USD")

		require.NoError(t, err)
		assert.True(t, stats.Open.Equal(decimal.NewFromInt(3000)))
		assert.True(t, stats.High.Equal(decimal.NewFromInt(3200)))
		assert.True(t, stats.Low.Equal(decimal.NewFromInt(2900)))
		assert.True(t, stats.Volume.Equal(decimal.NewFromInt(150000)))
	})

	t.Run("unparseable secondary fields default to zero and are logged", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"3000","high":"3200","low":"2900","volume":""}`))
		}))
		defer server.Close()

		log, hook := test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)
		client := NewClient(&Config{BaseURL: server.URL, RateLimit: 1000}, log)

		stats, err := client.GetStats(ctx, "ETH-USD")

		require.NoError(t, err)
		assert.True(t, stats.Volume.IsZero())

		require.Len(t, hook.Entries, 1)
		assert.Equal(t, "volume", hook.LastEntry().Data["field"])
		assert.Equal(t, "ETH-USD", hook.LastEntry().Data["product"])
	})

	t.Run("unparseable open is an error", func(t *testing.T) {
		client, server := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"open":"","high":"3200","low":"2900","volume":"150000"}`))
		}))
		defer server.Close()

		_, err := client.GetStats(ctx, "ETH-USD")
		assert.Error(t, err)
	})
}

// Test GetCandles
func TestClient_GetCandles(t *testing.T) {
	ctx := context.Background()

	client, server := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/candles", r.URL.Path)
		assert.Equal(t, "3600", r.URL.Query().Get("granularity"))
		// The exchange returns [time, low, high, open, close, volume],
		// newest first.
		w.Write([]byte(`[
			[1700003600, 99, 103, 100, 102, 11],
			[1700000000, 98, 102, 99, 100, 10]
		]`))
	}))
	defer server.Close()

	candles, err := client.GetCandles(ctx, "BTC-USD", time.Unix(1700000000, 0), time.Unix(1700007200, 0), 3600)

	require.NoError(t, err)
	require.Len(t, candles, 2)

	// Reordered oldest first.
	assert.Equal(t, int64(1700000000), candles[0].Timestamp.Unix())
	assert.Equal(t, int64(1700003600), candles[1].Timestamp.Unix())
	assert.True(t, candles[0].Close.Equal(decimal.NewFromInt(100)))
	assert.True(t, candles[1].Close.Equal(decimal.NewFromInt(102)))
}

// Test NewClient defaults
func TestNewClient(t *testing.T) {
	client := NewClient(nil, nil)

	require.NotNil(t, client)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
}
