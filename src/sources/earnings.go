package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
)

// earningsFetcher is the one backend call this adapter needs. The full REST
// client satisfies it.
type earningsFetcher interface {
	EarningsCSV(ctx context.Context) ([]byte, error)
}

// EarningsSource loads the extracted retained/reinvested earnings table
// from the backend's CSV endpoint.
type EarningsSource struct {
	fetcher earningsFetcher
}

func NewEarningsSource(fetcher earningsFetcher) *EarningsSource {
	return &EarningsSource{fetcher: fetcher}
}

// Load fetches and parses the earnings CSV. Fetch or parse failures degrade
// to an empty slice; rows without a symbol are dropped.
func (s *EarningsSource) Load(ctx context.Context) []models.EarningsRecord {
	raw, err := s.fetcher.EarningsCSV(ctx)
	if err != nil {
		logger.L.Warn("Earnings fetch degraded to empty dataset", "error", err)
		return []models.EarningsRecord{}
	}
	records, err := ParseEarningsCSV(raw)
	if err != nil {
		logger.L.Warn("Earnings CSV parse degraded to empty dataset", "error", err)
		return []models.EarningsRecord{}
	}
	return records
}

// ParseEarningsCSV maps CSV rows to earnings records by header name, so
// column order in the backend's output is free to change. Every header and
// every value is trimmed.
func ParseEarningsCSV(raw []byte) ([]models.EarningsRecord, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	records := make([]models.EarningsRecord, 0, len(rows))
	for _, row := range rows {
		symbol := field(row, "company_symbol")
		if symbol == "" {
			continue
		}
		records = append(records, models.EarningsRecord{
			Symbol:             symbol,
			RetainedEarnings:   field(row, "retained_earnings"),
			ReinvestedEarnings: field(row, "reinvested_earnings"),
			Year:               field(row, "year"),
			ExtractionError:    field(row, "error"),
		})
	}
	return records, nil
}
