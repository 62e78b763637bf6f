package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/infra"
)

const binanceStreamBase = "wss://stream.binance.com:9443/ws"

// klineEvent is the Binance combined kline payload.
type klineEvent struct {
	EventType string `json:"e"`
	Kline     struct {
		OpenTime int64  `json:"t"`
		Symbol   string `json:"s"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Final    bool   `json:"x"`
	} `json:"k"`
}

// ClosedCandle is one finished bar from the stream.
type ClosedCandle struct {
	Symbol string
	Candle domain.Candle
}

// KlineStream subscribes to Binance kline websockets and emits only
// closed bars; in-progress bars are dropped so downstream indicator
// state never sees a bar twice.
type KlineStream struct {
	url    string
	out    chan ClosedCandle
	worker *infra.SocketWorker
	log    *slog.Logger
}

// NewKlineStream builds a stream for the given symbols and timeframe.
// baseURL may be empty to use the public endpoint.
func NewKlineStream(baseURL string, symbols []string, timeframe string, log *slog.Logger) *KlineStream {
	if baseURL == "" {
		baseURL = binanceStreamBase
	}
	if log == nil {
		log = slog.Default()
	}
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = fmt.Sprintf("%s@kline_%s", strings.ToLower(s), timeframe)
	}
	ks := &KlineStream{
		url: fmt.Sprintf("%s/%s", baseURL, strings.Join(streams, "/")),
		out: make(chan ClosedCandle, 256),
		log: log,
	}
	ks.worker = infra.NewSocketWorker(ks)
	return ks
}

// Candles returns the closed-bar channel.
func (ks *KlineStream) Candles() <-chan ClosedCandle { return ks.out }

// Start begins the connect/read loop. It returns immediately.
func (ks *KlineStream) Start(ctx context.Context) { ks.worker.Start(ctx) }

// Stop tears the connection down and waits for the loop to exit.
func (ks *KlineStream) Stop() { ks.worker.Stop() }

// URL implements infra.SocketHandler.
func (ks *KlineStream) URL() string { return ks.url }

// Name implements infra.SocketHandler.
func (ks *KlineStream) Name() string { return "binance-kline" }

// OnConnect implements infra.SocketHandler. Subscription is encoded in
// the URL, so nothing to send.
func (ks *KlineStream) OnConnect(context.Context, *websocket.Conn) error { return nil }

// OnPing implements infra.SocketHandler.
func (ks *KlineStream) OnPing(_ context.Context, conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// OnMessage implements infra.SocketHandler. Malformed payloads and
// unfinished bars are dropped; a full channel drops the oldest wait by
// discarding the new bar with a warning rather than blocking the reader.
func (ks *KlineStream) OnMessage(_ context.Context, msg []byte) {
	var ev klineEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		ks.log.Warn("bad kline payload", slog.Any("error", err))
		return
	}
	if ev.EventType != "kline" || !ev.Kline.Final {
		return
	}

	c, err := candleFromStrings(ev.Kline.OpenTime, ev.Kline.Open, ev.Kline.High, ev.Kline.Low, ev.Kline.Close, ev.Kline.Volume)
	if err != nil {
		ks.log.Warn("bad kline fields", slog.String("symbol", ev.Kline.Symbol), slog.Any("error", err))
		return
	}

	select {
	case ks.out <- ClosedCandle{Symbol: ev.Kline.Symbol, Candle: c}:
	default:
		ks.log.Warn("kline channel full, dropping bar", slog.String("symbol", ev.Kline.Symbol))
	}
}
