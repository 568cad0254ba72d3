// Package currency converts amounts between the supported currencies using
// a USD-based rate table.
package currency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Base is the pivot currency of every rate table.
const Base = "USD"

// DefaultTTL is how long a fetched table is served before a refresh.
const DefaultTTL = time.Hour

// Rates maps a currency code to units per one USD.
type Rates map[string]float64

// Converter owns the rate table. Concurrent refreshes collapse into one
// upstream call, and the last good table is served if a refresh fails.
type Converter struct {
	fetcher Fetcher
	rates   *cache.TTLValue[Rates]
	group   singleflight.Group

	mu       sync.RWMutex
	lastGood Rates
}

func NewConverter(fetcher Fetcher, ttl time.Duration) *Converter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Converter{
		fetcher: fetcher,
		rates:   cache.NewTTLValue[Rates](ttl),
	}
}

// Cache exposes the rate cache so a cache.Manager can sweep it.
func (c *Converter) Cache() *cache.TTLValue[Rates] {
	return c.rates
}

// Rates returns the current table, refreshing it when the TTL has passed.
func (c *Converter) Rates(ctx context.Context) (Rates, error) {
	if r, ok := c.rates.Get(); ok {
		return r, nil
	}

	ch := c.group.DoChan(Base, func() (any, error) {
		if r, ok := c.rates.Get(); ok {
			return r, nil
		}
		// Detached so one caller's cancellation does not fail the others.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		return c.fetcher.Fetch(fctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return c.fallback(ctx, res.Err)
		}
		r := res.Val.(Rates)
		c.rates.Set(r)
		c.mu.Lock()
		c.lastGood = r
		c.mu.Unlock()
		if !res.Shared {
			slog.DebugContext(ctx, "Exchange rates refreshed", log.FieldComponent, log.ComponentCurrency, "codes", len(r))
		}
		return r, nil
	}
}

func (c *Converter) fallback(ctx context.Context, err error) (Rates, error) {
	c.mu.RLock()
	stale := c.lastGood
	c.mu.RUnlock()

	if stale == nil {
		slog.ErrorContext(ctx, "Failed to fetch exchange rates", log.FieldComponent, log.ComponentCurrency, log.FieldError, err)
		return nil, core.Unavailable(err, "Exchange rate service unavailable")
	}
	slog.WarnContext(ctx, "Serving stale exchange rates", log.FieldComponent, log.ComponentCurrency, log.FieldError, err)
	return stale, nil
}

// Convert returns amount / rate[from] * rate[to]. Same-currency conversion
// never touches the rate table.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to core.Currency) (float64, error) {
	if from == to {
		return amount, nil
	}
	rates, err := c.Rates(ctx)
	if err != nil {
		return 0, err
	}
	return convert(rates, amount, from, to)
}

func convert(rates Rates, amount float64, from, to core.Currency) (float64, error) {
	fromRate, ok := rates[string(from)]
	if !ok || fromRate <= 0 {
		return 0, fmt.Errorf("no exchange rate for %s", from)
	}
	toRate, ok := rates[string(to)]
	if !ok || toRate <= 0 {
		return 0, fmt.Errorf("no exchange rate for %s", to)
	}

	usd := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(fromRate))
	return usd.Mul(decimal.NewFromFloat(toRate)).InexactFloat64(), nil
}

// Static serves a fixed table. DATA_BACKEND=memory deployments without an
// API key use it with every supported currency at parity.
type Static Rates

func (s Static) Fetch(context.Context) (Rates, error) {
	out := make(Rates, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// Parity returns a table quoting every supported currency at 1.
func Parity() Static {
	s := make(Static, len(core.Currencies))
	for _, c := range core.Currencies {
		s[string(c)] = 1
	}
	return s
}
