// Package oracle abstracts the external price source. The ledger core
// treats prices as an input; this package only has to answer "last
// known price for symbol" with a positive decimal.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"stockdesk/internal/config"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when the source has no quote for the
// symbol. Callers treat it as a non-fatal failure to act this cycle.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceOracle returns the last known price for a symbol.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// New builds the oracle selected by cfg.
func New(cfg config.OracleConfig) (PriceOracle, error) {
	switch cfg.NormalizedProvider() {
	case "static":
		return NewStatic(cfg.Static), nil
	case "http":
		return NewHTTP(cfg), nil
	case "yahoo":
		return NewYahoo(), nil
	default:
		return nil, fmt.Errorf("oracle: unknown provider %q", cfg.Provider)
	}
}

// Static serves a fixed in-memory price table. Used in tests and for
// offline/dry-run setups; prices can be repointed at runtime.
type Static struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewStatic(prices map[string]float64) *Static {
	s := &Static{prices: make(map[string]decimal.Decimal, len(prices))}
	for sym, p := range prices {
		s.prices[normalize(sym)] = decimal.NewFromFloat(p)
	}
	return s
}

func (s *Static) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[normalize(symbol)]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}
	return price, nil
}

// SetPrice pins or updates a quote.
func (s *Static) SetPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	s.prices[normalize(symbol)] = price
	s.mu.Unlock()
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
