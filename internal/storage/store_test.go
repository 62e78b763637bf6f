package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

func TestTradeJournal_SaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trades.db")

	j, err := NewTradeJournal(dbPath)
	if err != nil {
		t.Fatalf("Failed to create journal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	t1 := domain.Trade{
		ID: "t-1", Ts: base, Symbol: "BTCUSDT", Side: "buy",
		Qty: 0.5, Price: 50_000, Fee: 25, OrderType: "auto",
		PnLRealized: -25, Note: "OPEN LONG LEG",
	}
	t2 := domain.Trade{
		ID: "t-2", Ts: base.Add(time.Minute), Symbol: "BTCUSDT", Side: "sell",
		Qty: 0.5, Price: 51_000, Fee: 25.5, OrderType: "auto",
		PnLRealized: 474.5, Note: "CLOSE LONG FIFO",
	}
	for _, tr := range []domain.Trade{t1, t2} {
		if err := j.SaveTrade(ctx, tr); err != nil {
			t.Fatalf("SaveTrade(%s) error = %v", tr.ID, err)
		}
	}

	loaded, err := j.LoadTrades(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d trades, want 2", len(loaded))
	}
	if loaded[0].ID != "t-1" || loaded[1].ID != "t-2" {
		t.Errorf("trades out of order: %v, %v", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].Side != "buy" {
		t.Errorf("side = %v, want buy", loaded[0].Side)
	}
	if !loaded[0].Ts.Equal(base) {
		t.Errorf("ts = %v, want %v", loaded[0].Ts, base)
	}
	if math.Abs(loaded[1].PnLRealized-474.5) > 1e-9 {
		t.Errorf("pnl = %v, want 474.5", loaded[1].PnLRealized)
	}

	n, err := j.CountTrades(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountTrades() = %v, %v, want 2", n, err)
	}

	// Filter misses return an empty tape, not an error.
	none, err := j.LoadTrades(ctx, "ETHUSDT")
	if err != nil || len(none) != 0 {
		t.Errorf("LoadTrades(ETHUSDT) = %v, %v, want empty", none, err)
	}
}

func TestTradeJournal_DuplicateIDRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trades.db")
	j, err := NewTradeJournal(dbPath)
	if err != nil {
		t.Fatalf("Failed to create journal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	tr := domain.Trade{ID: "dup", Ts: time.Now(), Symbol: "BTCUSDT", Side: "buy", Qty: 1, Price: 1}
	if err := j.SaveTrade(ctx, tr); err != nil {
		t.Fatalf("first SaveTrade() error = %v", err)
	}
	if err := j.SaveTrade(ctx, tr); err == nil {
		t.Error("second SaveTrade() with same ID must fail")
	}
}

func TestTradeJournal_Metadata(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trades.db")
	j, err := NewTradeJournal(dbPath)
	if err != nil {
		t.Fatalf("Failed to create journal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	if err := j.UpsertMetadata(ctx, "run_id", "abc", 1); err != nil {
		t.Fatalf("UpsertMetadata() error = %v", err)
	}
	if err := j.UpsertMetadata(ctx, "run_id", "def", 2); err != nil {
		t.Fatalf("UpsertMetadata() upsert error = %v", err)
	}
	got, err := j.GetMetadata(ctx, "run_id")
	if err != nil || got != "def" {
		t.Errorf("GetMetadata() = %q, %v, want def", got, err)
	}
	missing, err := j.GetMetadata(ctx, "nope")
	if err != nil || missing != "" {
		t.Errorf("GetMetadata(missing) = %q, %v, want empty", missing, err)
	}
}
