// Package view derives what the grid actually shows from the canonical row
// model: filtering, ordering, number formatting, and the hierarchical
// header of the extraction table. Nothing here mutates its input.
package view

import (
	"sort"
	"strings"

	"github.com/username/tadawulboard/src/models"
)

// Derive filters and orders unified rows for the flat grid. A row passes
// the filter when its symbol or company name contains search as a literal
// substring; the empty search passes everything. Rows are then ordered by
// retained earnings parsed as a number, descending; rows without a numeric
// figure go last, and ties keep their filter-relative order.
func Derive(rows []models.UnifiedRow, search string) []models.UnifiedRow {
	out := make([]models.UnifiedRow, 0, len(rows))
	for _, r := range rows {
		if search == "" || strings.Contains(r.CompanyName, search) || strings.Contains(r.Symbol, search) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, iNum := numericValue(out[i].RetainedEarnings)
		vj, jNum := numericValue(out[j].RetainedEarnings)
		if iNum != jNum {
			return iNum
		}
		return vi > vj
	})
	return out
}

// PartitionColumns splits extraction columns into those with usable data
// and those that failed. The split is recomputed on every call; success is
// never stored as a flag.
func PartitionColumns(cols []models.ExtractionColumn) (successful, failed []models.ExtractionColumn) {
	successful = make([]models.ExtractionColumn, 0, len(cols))
	failed = make([]models.ExtractionColumn, 0)
	for _, c := range cols {
		if c.Succeeded() {
			successful = append(successful, c)
		} else {
			failed = append(failed, c)
		}
	}
	return successful, failed
}
