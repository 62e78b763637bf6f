package backtest

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/execution"
	"github.com/Bich992/Trading-BOT/internal/risk"
	"github.com/Bich992/Trading-BOT/internal/strategy"
)

func approx(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %v, want %v (tol %v)", got, want, tol)
	}
}

func TestEquityCurveFromTrades(t *testing.T) {
	trades := []domain.Trade{
		{PnLRealized: 10},
		{PnLRealized: -5},
	}
	curve := EquityCurveFromTrades(trades, 100)
	want := []float64{100, 110, 105}
	if len(curve) != len(want) {
		t.Fatalf("curve length = %d, want %d", len(curve), len(want))
	}
	for i := range want {
		approx(t, curve[i], want[i], 1e-12)
	}
}

func TestMaxDrawdown(t *testing.T) {
	cases := []struct {
		name  string
		curve []float64
		want  float64
	}{
		{"peak then trough", []float64{100, 110, 105}, 5.0 / 110.0},
		{"monotonic up", []float64{100, 105, 110}, 0},
		{"deep late trough", []float64{100, 120, 90, 95}, 30.0 / 120.0},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			approx(t, MaxDrawdown(tc.curve), tc.want, 1e-12)
		})
	}
}

func TestSharpeRatio(t *testing.T) {
	if got := SharpeRatio(nil, 0); got != 0 {
		t.Fatalf("empty returns: got %v, want 0", got)
	}
	if got := SharpeRatio([]float64{0.01, 0.01, 0.01}, 0); got != 0 {
		t.Fatalf("flat returns: got %v, want 0", got)
	}

	rets := []float64{0.1, -0.05}
	mean := 0.025
	std := 0.075
	want := mean / std * math.Sqrt(252)
	approx(t, SharpeRatio(rets, 0), want, 1e-9)
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 105})
	approx(t, got[0], 0.10, 1e-12)
	approx(t, got[1], -5.0/110.0, 1e-12)
	if Returns([]float64{100}) != nil {
		t.Fatal("single-point curve should yield no returns")
	}
}

// buyOnce fires a single BUY when the series reaches fireAt bars.
type buyOnce struct {
	fireAt int
	fired  bool
}

func (s *buyOnce) Name() string { return "buy-once" }

func (s *buyOnce) GenerateSignal(series domain.Series) strategy.Signal {
	if s.fired || len(series) < s.fireAt {
		return strategy.Signal{Action: domain.ActionHold, Confidence: 0.2}
	}
	s.fired = true
	return strategy.Signal{Action: domain.ActionBuy, Confidence: 0.7}
}

func flatSeries(n int, price float64) domain.Series {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := make(domain.Series, n)
	for i := range s {
		s[i] = domain.Candle{
			Ts:     base.Add(time.Duration(i) * time.Minute),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1,
		}
	}
	return s
}

func TestRunnerReplaysAndBooksTrades(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := strategy.NewRegistry(func() strategy.Strategy { return &buyOnce{fireAt: 5} })

	execCfg := execution.DefaultConfig()
	execCfg.SlippageBps = 0
	runner := NewRunner(execCfg, risk.DefaultGateConfig(), risk.DefaultSizeConfig(), registry, log)

	res := runner.Run(map[string]domain.Series{"BTCUSDT": flatSeries(10, 100)})

	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Symbol != "BTCUSDT" || tr.Side != "buy" {
		t.Fatalf("unexpected trade: %+v", tr)
	}
	// FIXED sizing: 100 notional at price 100.
	approx(t, tr.Qty, 1, 1e-12)

	// Open trades carry only the fee as realized PnL.
	if len(res.EquityCurve) != 2 {
		t.Fatalf("curve length = %d, want 2", len(res.EquityCurve))
	}
	approx(t, res.EquityCurve[1], execCfg.StartingCash-tr.Fee, 1e-9)
	if res.MaxDrawdown <= 0 {
		t.Fatal("fee drag should register as drawdown")
	}
}

func TestRunnerGateBlocksOversizedOrders(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := strategy.NewRegistry(func() strategy.Strategy { return &buyOnce{fireAt: 1} })

	execCfg := execution.DefaultConfig()
	sizeCfg := risk.SizeConfig{Mode: "FIXED", FixedNotional: 0}
	runner := NewRunner(execCfg, risk.DefaultGateConfig(), sizeCfg, registry, log)

	res := runner.Run(map[string]domain.Series{"ETHUSDT": flatSeries(5, 50)})
	if len(res.Trades) != 0 {
		t.Fatalf("zero-qty orders must be rejected, got %d trades", len(res.Trades))
	}
}
