package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockdesk/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsProvider(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		o, err := New(config.OracleConfig{Provider: "static", Static: map[string]float64{"AAPL": 100}})
		require.NoError(t, err)
		assert.IsType(t, &Static{}, o)
	})

	t.Run("provider is case-insensitive", func(t *testing.T) {
		_, err := New(config.OracleConfig{Provider: " Yahoo "})
		assert.NoError(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(config.OracleConfig{Provider: "carrier-pigeon"})
		assert.Error(t, err)
	})
}

func TestStaticOracle(t *testing.T) {
	o := NewStatic(map[string]float64{"aapl": 187.5})
	ctx := context.Background()

	t.Run("known symbol", func(t *testing.T) {
		price, err := o.GetPrice(ctx, "AAPL")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromFloat(187.5)))
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := o.GetPrice(ctx, "MSFT")
		assert.ErrorIs(t, err, ErrPriceUnavailable)
	})

	t.Run("set price at runtime", func(t *testing.T) {
		o.SetPrice("msft", decimal.NewFromInt(400))
		price, err := o.GetPrice(ctx, "MSFT")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(400)))
	})
}

func TestHTTPOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/AAPL":
			fmt.Fprint(w, `{"data":{"price":187.5}}`)
		case "/quote/FREE":
			fmt.Fprint(w, `{"data":{"price":0}}`)
		case "/quote/JUNK":
			fmt.Fprint(w, `not json`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	o := NewHTTP(config.OracleConfig{
		Provider:       "http",
		BaseURL:        srv.URL,
		PricePath:      "data.price",
		TimeoutSeconds: 2,
	})
	ctx := context.Background()

	t.Run("extracts price via gjson path", func(t *testing.T) {
		price, err := o.GetPrice(ctx, "aapl")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromFloat(187.5)))
	})

	t.Run("non-positive price unavailable", func(t *testing.T) {
		_, err := o.GetPrice(ctx, "FREE")
		assert.ErrorIs(t, err, ErrPriceUnavailable)
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := o.GetPrice(ctx, "JUNK")
		assert.Error(t, err)
	})

	t.Run("http error status", func(t *testing.T) {
		_, err := o.GetPrice(ctx, "NOPE")
		assert.Error(t, err)
	})
}
