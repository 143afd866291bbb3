// Package reconcile joins the ownership and earnings datasets into the
// unified row collection the dashboard renders, and owns the single shared
// copy of that collection.
package reconcile

import (
	"strings"

	"github.com/google/uuid"

	"github.com/username/tadawulboard/src/models"
)

// Reconcile joins ownership records with earnings records by trimmed
// company symbol. It produces exactly one UnifiedRow per ownership record,
// in ownership input order; earnings rows that match no ownership row are
// dropped. When the same symbol appears more than once in the earnings
// input, the later occurrence wins.
//
// Missing data degrades to empty-string fields; this function never fails.
// Sorting and filtering are presentation concerns and do not happen here.
func Reconcile(ownership []models.OwnershipRecord, earnings []models.EarningsRecord) []models.UnifiedRow {
	index := make(map[string]models.EarningsRecord, len(earnings))
	for _, e := range earnings {
		index[strings.TrimSpace(e.Symbol)] = e
	}

	rows := make([]models.UnifiedRow, 0, len(ownership))
	for _, o := range ownership {
		row := models.UnifiedRow{
			RowID:               uuid.NewString(),
			Symbol:              o.Symbol,
			CompanyName:         o.CompanyName,
			ForeignOwnershipPct: o.ForeignOwnershipPct,
			MaxAllowedPct:       o.MaxAllowedPct,
			InvestorLimitPct:    o.InvestorLimitPct,
		}
		if e, ok := index[strings.TrimSpace(o.Symbol)]; ok {
			row.RetainedEarnings = e.RetainedEarnings
			row.ReinvestedEarnings = e.ReinvestedEarnings
			row.Year = e.Year
			row.ExtractionError = e.ExtractionError
		}
		rows = append(rows, row)
	}
	return rows
}
