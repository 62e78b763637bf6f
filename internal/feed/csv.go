package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// CSVFeed serves candles from files named <SYMBOL>_<timeframe>.csv in a
// directory. Rows are: unix_ms,open,high,low,close,volume with an
// optional header line.
type CSVFeed struct {
	dir string
}

// NewCSVFeed points the feed at dir.
func NewCSVFeed(dir string) *CSVFeed {
	return &CSVFeed{dir: dir}
}

// LatestOHLC loads the whole file for symbol/timeframe, oldest first.
func (f *CSVFeed) LatestOHLC(ctx context.Context, symbol, timeframe string) (domain.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(f.dir, fmt.Sprintf("%s_%s.csv", symbol, timeframe))
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles %s: %w", path, err)
	}
	defer file.Close()
	return ReadCandles(file)
}

// ReadCandles parses candle rows from r. A non-numeric first row is
// treated as a header and skipped.
func ReadCandles(r io.Reader) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	var series domain.Series
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read candle row: %w", err)
		}
		line++

		ms, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: bad timestamp %q", line, rec[0])
		}

		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad field %q", line, rec[i+1])
			}
			vals[i] = v
		}
		series = append(series, domain.Candle{
			Ts:     time.UnixMilli(ms).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return series, nil
}
