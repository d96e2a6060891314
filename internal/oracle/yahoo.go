package oracle

import (
	"context"
	"fmt"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Yahoo serves real quotes from the public Yahoo Finance API.
type Yahoo struct {
	group singleflight.Group
}

func NewYahoo() *Yahoo { return &Yahoo{} }

func (y *Yahoo) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = normalize(symbol)
	val, err, _ := y.group.Do(symbol, func() (any, error) {
		q, err := quote.Get(symbol)
		if err != nil {
			return nil, fmt.Errorf("oracle: yahoo quote for %s: %w", symbol, err)
		}
		if q == nil || q.RegularMarketPrice <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
		}
		return decimal.NewFromFloat(q.RegularMarketPrice), nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return val.(decimal.Decimal), nil
}
