// Package data provides historical price series loading and storage.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
)

// csvColumns is the expected header of a price series file.
var csvColumns = []string{"date", "open", "high", "low", "close", "adjClose", "volume"}

// LoadCSV reads a daily price series from a CSV file. The file must carry
// the standard header and rows in ascending date order; validation failures
// reference the offending row.
func LoadCSV(path, symbol string) (*types.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	series, err := ReadCSV(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// ReadCSV parses a price series from CSV content.
func ReadCSV(r io.Reader, symbol string) (*types.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var bars []types.PriceBar
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		bar, err := parseBar(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		bars = append(bars, bar)
	}

	return types.NewPriceSeries(symbol, bars)
}

func checkHeader(header []string) error {
	if len(header) != len(csvColumns) {
		return fmt.Errorf("expected %d columns, got %d", len(csvColumns), len(header))
	}
	for i, want := range csvColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, want, header[i])
		}
	}
	return nil
}

func parseBar(record []string) (types.PriceBar, error) {
	if len(record) != len(csvColumns) {
		return types.PriceBar{}, fmt.Errorf("expected %d fields, got %d", len(csvColumns), len(record))
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("invalid date %q: %w", record[0], err)
	}

	values := make([]decimal.Decimal, 6)
	for i := 1; i < len(record); i++ {
		v, err := decimal.NewFromString(strings.TrimSpace(record[i]))
		if err != nil {
			return types.PriceBar{}, fmt.Errorf("invalid %s %q: %w", csvColumns[i], record[i], err)
		}
		values[i-1] = v
	}

	return types.PriceBar{
		Date:     date,
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		AdjClose: values[4],
		Volume:   values[5],
	}, nil
}
