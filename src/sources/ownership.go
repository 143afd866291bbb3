// Package sources fetches the raw ownership and earnings payloads and
// normalizes them into model records. Both adapters degrade to an empty
// slice on any failure; nothing past this boundary ever sees a fetch error.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
)

// OwnershipSource loads the scraped foreign-ownership table from its static
// JSON location.
type OwnershipSource struct {
	httpClient *http.Client
	url        string
	maxBytes   int64
}

func NewOwnershipSource(url string, timeout time.Duration, maxBytes int64) *OwnershipSource {
	return &OwnershipSource{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		maxBytes:   maxBytes,
	}
}

// Load fetches and normalizes the ownership rows. Whatever goes wrong, the
// caller gets an empty slice and the dashboard degrades to "no ownership
// data".
func (s *OwnershipSource) Load(ctx context.Context) []models.OwnershipRecord {
	records, err := s.load(ctx)
	if err != nil {
		logger.L.Warn("Ownership fetch degraded to empty dataset", "url", s.url, "error", err)
		return []models.OwnershipRecord{}
	}
	return records
}

func (s *OwnershipSource) load(ctx context.Context) ([]models.OwnershipRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ownership data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var records []models.OwnershipRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, s.maxBytes)).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode ownership JSON: %w", err)
	}

	normalized := make([]models.OwnershipRecord, 0, len(records))
	for _, r := range records {
		normalized = append(normalized, models.OwnershipRecord{
			Symbol:              strings.TrimSpace(r.Symbol),
			CompanyName:         strings.TrimSpace(r.CompanyName),
			ForeignOwnershipPct: strings.TrimSpace(r.ForeignOwnershipPct),
			MaxAllowedPct:       strings.TrimSpace(r.MaxAllowedPct),
			InvestorLimitPct:    strings.TrimSpace(r.InvestorLimitPct),
		})
	}
	return normalized, nil
}
