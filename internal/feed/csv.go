package feed

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// CSVFeed streams candles from an OHLCV CSV file.
// Supported row formats, with or without a header row:
//   - open,high,low,close,volume
//   - timestamp,open,high,low,close,volume (timestamp column is ignored;
//     the simulator keeps its own logical clock)
type CSVFeed struct {
	filePath string
	candles  []types.Candle
	loaded   bool
}

// NewCSVFeed creates a feed that reads from the given file on first use.
func NewCSVFeed(filePath string) *CSVFeed {
	return &CSVFeed{filePath: filePath}
}

// Subscribe starts streaming the file's candles in order.
func (f *CSVFeed) Subscribe(ctx context.Context) (<-chan types.Candle, error) {
	if !f.loaded {
		if err := f.load(); err != nil {
			return nil, err
		}
	}

	ch := make(chan types.Candle, 100)

	go func() {
		defer close(ch)
		for _, c := range f.candles {
			select {
			case <-ctx.Done():
				return
			case ch <- c:
			}
		}
	}()

	return ch, nil
}

// Close releases the loaded candles.
func (f *CSVFeed) Close() error {
	f.candles = nil
	f.loaded = false
	return nil
}

// Name returns the feed identifier.
func (f *CSVFeed) Name() string {
	return "csv"
}

// Len returns the number of loaded candles, loading the file if needed.
func (f *CSVFeed) Len() (int, error) {
	if !f.loaded {
		if err := f.load(); err != nil {
			return 0, err
		}
	}
	return len(f.candles), nil
}

func (f *CSVFeed) load() error {
	file, err := os.Open(f.filePath)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	candles, err := ParseCSV(file)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	f.candles = candles
	f.loaded = true
	return nil
}

// ParseCSV parses candles from a CSV reader. Malformed rows are skipped.
func ParseCSV(r io.Reader) ([]types.Candle, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var candles []types.Candle
	lineNum := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		lineNum++

		if lineNum == 1 && isHeader(record) {
			continue
		}
		if len(record) < 4 {
			continue
		}

		candle, err := parseRecord(record)
		if err != nil {
			continue
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// parseRecord parses one CSV row into a candle. A leading timestamp
// column is dropped: either the row has six columns, or the first field
// contains date separators.
func parseRecord(record []string) (types.Candle, error) {
	fields := record
	if len(fields) >= 6 || looksLikeTimestamp(fields[0]) {
		fields = fields[1:]
	}
	if len(fields) < 4 {
		return types.Candle{}, fmt.Errorf("too few columns")
	}

	var c types.Candle
	var err error

	if c.Open, err = decimal.NewFromString(fields[0]); err != nil {
		return c, fmt.Errorf("parse open: %w", err)
	}
	if c.High, err = decimal.NewFromString(fields[1]); err != nil {
		return c, fmt.Errorf("parse high: %w", err)
	}
	if c.Low, err = decimal.NewFromString(fields[2]); err != nil {
		return c, fmt.Errorf("parse low: %w", err)
	}
	if c.Close, err = decimal.NewFromString(fields[3]); err != nil {
		return c, fmt.Errorf("parse close: %w", err)
	}

	if len(fields) > 4 {
		if vol, err := decimal.NewFromString(fields[4]); err == nil {
			c.Volume = vol
		}
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// looksLikeTimestamp reports whether a field contains date separators.
func looksLikeTimestamp(s string) bool {
	return strings.ContainsAny(s, "-/:T ") && !strings.HasPrefix(s, "-")
}

// isHeader checks if a record looks like a header row.
func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	headers := []string{"timestamp", "time", "date", "datetime", "open", "high", "low", "close"}
	first := strings.ToLower(record[0])
	for _, h := range headers {
		if first == h {
			return true
		}
	}
	return false
}
