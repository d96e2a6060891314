package oracle

import (
	"context"
	"fmt"
	"time"

	"stockdesk/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

// HTTP polls a JSON quote endpoint. The price is extracted with a
// configurable gjson path so the oracle adapts to different response
// shapes without code changes.
type HTTP struct {
	client    *resty.Client
	pricePath string
	group     singleflight.Group
}

func NewHTTP(cfg config.OracleConfig) *HTTP {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTP{client: client, pricePath: cfg.PricePath}
}

func (h *HTTP) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = normalize(symbol)
	// Collapse concurrent lookups for the same symbol into one request.
	val, err, _ := h.group.Do(symbol, func() (any, error) {
		return h.fetch(ctx, symbol)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return val.(decimal.Decimal), nil
}

func (h *HTTP) fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		Get("/quote/{symbol}")
	if err != nil {
		return decimal.Zero, fmt.Errorf("oracle: quote request for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("oracle: quote request for %s: status %d", symbol, resp.StatusCode())
	}
	body := resp.String()
	if !gjson.Valid(body) {
		return decimal.Zero, fmt.Errorf("oracle: invalid quote payload for %s", symbol)
	}
	result := gjson.Get(body, h.pricePath)
	if !result.Exists() || result.Float() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}
	return decimal.NewFromFloat(result.Float()), nil
}
