package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/execution"
	"github.com/Bich992/Trading-BOT/internal/ledger"
	"github.com/Bich992/Trading-BOT/internal/live"
	"github.com/Bich992/Trading-BOT/internal/risk"
)

type stubFeed struct {
	frames map[string]map[string]domain.Series // symbol -> timeframe -> series
	err    error
}

func (f *stubFeed) LatestOHLC(_ context.Context, symbol, timeframe string) (domain.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.frames[symbol][timeframe], nil
}

func newTestEngine(feed DataFeed, assets []Asset) *TradingEngine {
	broker := execution.NewPaperBroker(execution.DefaultConfig(), quietLogger())
	gateCfg := risk.DefaultGateConfig()
	gateCfg.MaxExposurePct = 1.0
	return NewTradingEngine(Options{
		Assets:  assets,
		Feed:    feed,
		Broker:  broker,
		Gate:    risk.NewGate(gateCfg, execution.DefaultConfig().StartingCash, quietLogger()),
		Sizer:   risk.NewPositionSizer(risk.DefaultSizeConfig()),
		AutoCfg: DefaultAutoConfig(),
		Logger:  quietLogger(),
	})
}

func TestRunStep_ExecutesStrategySignal(t *testing.T) {
	feed := &stubFeed{frames: map[string]map[string]domain.Series{
		"BTCUSDT": {"15m": risingSeries(150)},
	}}
	e := newTestEngine(feed, []Asset{{Symbol: "BTCUSDT", Timeframes: []string{"15m"}}})

	actions, err := e.RunStep(context.Background())
	if err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("actions = %v, want one fill", actions)
	}
	if e.State().Portfolio().NetQty("BTCUSDT") <= 0 {
		t.Error("rising series should leave a long position")
	}
	if e.State().LastPrices()["BTCUSDT"] == 0 {
		t.Error("RunStep must record the last price")
	}
}

func TestRunStep_FeedErrorSkipsSymbol(t *testing.T) {
	feed := &stubFeed{err: errors.New("exchange down")}
	e := newTestEngine(feed, []Asset{{Symbol: "BTCUSDT", Timeframes: []string{"15m"}}})

	actions, err := e.RunStep(context.Background())
	if err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("actions = %v, want none when the feed fails", actions)
	}
}

func TestRunAutoStep_PicksTimeframeAndTrades(t *testing.T) {
	feed := &stubFeed{frames: map[string]map[string]domain.Series{
		"BTCUSDT": {
			"5m":  risingSeries(150),
			"15m": risingSeries(150),
		},
	}}
	e := newTestEngine(feed, []Asset{{Symbol: "BTCUSDT", Timeframes: []string{"5m", "15m"}}})

	logs, err := e.RunAutoStep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunAutoStep() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %v, want one entry", logs)
	}
	if e.State().Portfolio().NetQty("BTCUSDT") <= 0 {
		t.Error("auto step should open a long on a trending series")
	}
}

func TestRunAutoStep_PublishesLiveState(t *testing.T) {
	feed := &stubFeed{frames: map[string]map[string]domain.Series{
		"BTCUSDT": {"15m": risingSeries(150)},
	}}
	broker := execution.NewPaperBroker(execution.DefaultConfig(), quietLogger())
	gateCfg := risk.DefaultGateConfig()
	gateCfg.MaxExposurePct = 1.0
	buf := live.NewStateBuffer()
	e := NewTradingEngine(Options{
		Assets:  []Asset{{Symbol: "BTCUSDT", Timeframes: []string{"15m"}}},
		Feed:    feed,
		Broker:  broker,
		Gate:    risk.NewGate(gateCfg, execution.DefaultConfig().StartingCash, quietLogger()),
		Sizer:   risk.NewPositionSizer(risk.DefaultSizeConfig()),
		AutoCfg: DefaultAutoConfig(),
		Live:    buf,
		Logger:  quietLogger(),
	})

	if _, err := e.RunAutoStep(context.Background(), time.Now()); err != nil {
		t.Fatalf("RunAutoStep() error = %v", err)
	}

	frame, markers, lastPrice, ok := buf.Snapshot()
	if !ok || lastPrice <= 0 {
		t.Fatal("auto step must publish a last price")
	}
	if len(frame) != 150 {
		t.Errorf("frame length = %d, want 150", len(frame))
	}
	if len(markers) != 1 || markers[0].Status != "OPEN" {
		t.Fatalf("markers = %+v, want one OPEN marker", markers)
	}
}

func TestSummary(t *testing.T) {
	feed := &stubFeed{frames: map[string]map[string]domain.Series{
		"BTCUSDT": {"15m": risingSeries(150)},
	}}
	e := newTestEngine(feed, []Asset{{Symbol: "BTCUSDT", Timeframes: []string{"15m"}}})
	if _, err := e.RunStep(context.Background()); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}

	r := e.Summary()
	if r.Trades != 1 {
		t.Errorf("trades = %v, want 1", r.Trades)
	}
	if r.Fees <= 0 {
		t.Errorf("fees = %v, want > 0", r.Fees)
	}
}

func TestChooseBestTimeframe(t *testing.T) {
	trend := risingSeries(150)
	chop := series(150, func(i int) float64 { return 100 + 0.5*float64(i) }, 5)

	best := ChooseBestTimeframe(map[string]domain.Series{
		"1m":  chop,
		"15m": trend,
	})
	if best.Timeframe != "15m" {
		t.Errorf("best timeframe = %v, want 15m", best.Timeframe)
	}
	if best.Regime != domain.RegimeTrend {
		t.Errorf("best regime = %v, want TREND", best.Regime)
	}

	// Nothing long enough: sentinel result.
	best = ChooseBestTimeframe(map[string]domain.Series{"1m": risingSeries(10)})
	if best.Timeframe != "5m" || best.Score != -999 {
		t.Errorf("sentinel = %+v, want 5m / -999", best)
	}
}

func TestEngineStateViews(t *testing.T) {
	p := ledger.NewPaperPortfolio(10_000, 0, quietLogger())
	st := NewEngineState(p)

	if _, err := p.OpenLeg(ledger.OpenLegParams{
		Symbol: "BTCUSDT", Side: domain.SideLong, Qty: 2, Price: 100, Ts: time.Now(),
	}); err != nil {
		t.Fatalf("OpenLeg() error = %v", err)
	}
	st.SetPrice("BTCUSDT", 110)

	if got, want := st.Equity(), 8_000+2*110.0; got != want {
		t.Errorf("equity = %v, want %v", got, want)
	}
	if got := st.ExposurePct("BTCUSDT"); got <= 0 {
		t.Errorf("exposure = %v, want > 0", got)
	}
	pos := st.Positions()
	if len(pos) != 1 || pos[0].Symbol != "BTCUSDT" || pos[0].NetQty != 2 {
		t.Fatalf("positions = %+v, want one BTCUSDT x2", pos)
	}
	if pos[0].Unrealized != 20 {
		t.Errorf("unrealized = %v, want 20", pos[0].Unrealized)
	}
	// Missing marks yield zero exposure rather than a division blowup.
	if got := st.ExposurePct("ETHUSDT"); got != 0 {
		t.Errorf("exposure without a mark = %v, want 0", got)
	}
}
