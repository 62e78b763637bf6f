package execution

import (
	"log/slog"
	"time"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/ledger"
)

// Fill describes a simulated execution.
type Fill struct {
	Price     float64       `json:"price"`
	Qty       float64       `json:"qty"`
	Fee       float64       `json:"fee"`
	Ts        time.Time     `json:"ts"`
	Latency   time.Duration `json:"latency"`
	OrderType string        `json:"order_type"`
}

// Config tunes the paper execution path.
type Config struct {
	StartingCash      float64 `yaml:"starting_cash"`
	FeeRate           float64 `yaml:"fee_rate"`
	MakerFee          float64 `yaml:"maker_fee"`
	TakerFee          float64 `yaml:"taker_fee"`
	SlippageBps       float64 `yaml:"slippage_bps"`
	SimulateLatencyMs int     `yaml:"simulate_latency_ms"`
}

// DefaultConfig returns the stock paper execution settings.
func DefaultConfig() Config {
	return Config{
		StartingCash:      10_000,
		FeeRate:           0.001,
		MakerFee:          0.0002,
		TakerFee:          0.0006,
		SlippageBps:       1.5,
		SimulateLatencyMs: 120,
	}
}

// PaperBroker turns decisions into slipped fills booked on the
// portfolio. It owns the portfolio it trades against.
type PaperBroker struct {
	cfg       Config
	fees      FeeModel
	portfolio *ledger.PaperPortfolio
	log       *slog.Logger
}

// NewPaperBroker builds a broker and its backing portfolio.
func NewPaperBroker(cfg Config, log *slog.Logger) *PaperBroker {
	if log == nil {
		log = slog.Default()
	}
	return &PaperBroker{
		cfg: cfg,
		fees: FeeModel{
			MakerFee:    cfg.MakerFee,
			TakerFee:    cfg.TakerFee,
			SlippageBps: cfg.SlippageBps,
		},
		portfolio: ledger.NewPaperPortfolio(cfg.StartingCash, cfg.FeeRate, log),
		log:       log,
	}
}

// Portfolio exposes the backing portfolio for state views and risk checks.
func (b *PaperBroker) Portfolio() *ledger.PaperPortfolio {
	return b.portfolio
}

// Execute opens a leg for a BUY or SELL decision at the slipped price.
// HOLD decisions and non-positive quantities fill nothing.
func (b *PaperBroker) Execute(dec domain.TradeDecision, qty, price float64) (*Fill, error) {
	if dec.Action == domain.ActionHold || qty <= 0 {
		return nil, nil
	}
	side := domain.SideLong
	if dec.Action == domain.ActionSell {
		side = domain.SideShort
	}
	execPrice := b.fees.ApplySlippage(price, dec.Action)
	ts := time.Now().UTC()

	if _, err := b.portfolio.OpenLeg(ledger.OpenLegParams{
		Symbol:     dec.Symbol,
		Side:       side,
		Qty:        qty,
		Price:      execPrice,
		Ts:         ts,
		StopLoss:   dec.StopLoss,
		TakeProfit: dec.TakeProfit,
		Confidence: dec.Confidence,
		Regime:     dec.Regime,
		Reason:     firstReason(dec.Reasons),
		OrderType:  "paper",
	}); err != nil {
		return nil, err
	}

	fill := &Fill{
		Price:     execPrice,
		Qty:       qty,
		Fee:       b.fees.Fee(qty*execPrice, true),
		Ts:        ts,
		Latency:   time.Duration(b.cfg.SimulateLatencyMs) * time.Millisecond,
		OrderType: "paper",
	}
	b.log.Info("paper fill",
		slog.String("symbol", dec.Symbol),
		slog.String("action", string(dec.Action)),
		slog.Float64("qty", qty),
		slog.Float64("price", execPrice),
		slog.Float64("fee", fill.Fee))
	return fill, nil
}

func firstReason(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	return reasons[0]
}
