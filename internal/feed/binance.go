// Package feed supplies candle history and live kline updates from
// Binance spot, plus a CSV loader for offline runs.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/infra"
)

// defaultKlineLimit mirrors what the decision stack needs: enough bars
// for the slow EMA plus warmup.
const defaultKlineLimit = 200

// BinanceFeed fetches OHLCV over the Binance REST API. Requests pass a
// token-bucket limiter and a circuit breaker so a flapping exchange
// cannot stall the engine loop.
type BinanceFeed struct {
	client  *binance.Client
	limiter *infra.RateLimiter
	breaker *infra.CircuitBreaker
	limit   int
	log     *slog.Logger
}

// NewBinanceFeed builds a public-data client. Keys may be empty since
// kline endpoints are unauthenticated.
func NewBinanceFeed(apiKey, secretKey string, log *slog.Logger) *BinanceFeed {
	if log == nil {
		log = slog.Default()
	}
	return &BinanceFeed{
		client:  binance.NewClient(apiKey, secretKey),
		limiter: infra.GetMarketLimiter(),
		breaker: infra.NewCircuitBreaker("binance-rest", 5, 2, 30*time.Second),
		limit: defaultKlineLimit,
		log:   log,
	}
}

// LatestOHLC returns the most recent candles for symbol at the given
// interval, oldest first.
func (f *BinanceFeed) LatestOHLC(ctx context.Context, symbol, timeframe string) (domain.Series, error) {
	if !f.breaker.Allow() {
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, timeframe, infra.ErrBreakerOpen)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, timeframe, err)
	}

	klines, err := f.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(f.limit).
		Do(ctx)
	f.breaker.Record(err)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, timeframe, err)
	}

	series := make(domain.Series, 0, len(klines))
	for _, k := range klines {
		c, err := candleFromStrings(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, fmt.Errorf("parse kline %s %s: %w", symbol, timeframe, err)
		}
		series = append(series, c)
	}
	return series, nil
}

// candleFromStrings parses exchange decimal strings without float
// round-tripping surprises.
func candleFromStrings(openTimeMs int64, open, high, low, closePx, volume string) (domain.Candle, error) {
	var c domain.Candle
	fields := []struct {
		raw string
		dst *float64
	}{
		{open, &c.Open},
		{high, &c.High},
		{low, &c.Low},
		{closePx, &c.Close},
		{volume, &c.Volume},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("bad decimal %q: %w", f.raw, err)
		}
		*f.dst = d.InexactFloat64()
	}
	c.Ts = time.UnixMilli(openTimeMs).UTC()
	return c, nil
}
