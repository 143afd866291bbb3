package reconcile

import (
	"sync"

	"github.com/username/tadawulboard/src/models"
)

// Patchable earnings fields a correction may overwrite on a unified row.
// Field names follow the backend's correction payload.
const (
	FieldRetainedEarnings   = "retained_earnings"
	FieldReinvestedEarnings = "reinvested_earnings"
	FieldYear               = "year"
	FieldExtractionError    = "error"
)

// Table holds the single shared unified row collection. All writers go
// through its mutex, and every full replacement carries a generation token
// so a fetch that was superseded while in flight cannot clobber newer data.
type Table struct {
	mu         sync.Mutex
	rows       []models.UnifiedRow
	generation uint64 // highest generation handed out
	applied    uint64 // generation of the rows currently held
}

func NewTable() *Table {
	return &Table{}
}

// NextGeneration reserves a token for an upcoming fetch cycle. Call it
// before starting the fetch, and pass the token to Replace when the results
// arrive.
func (t *Table) NextGeneration() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	return t.generation
}

// Replace swaps in a freshly reconciled collection. It reports false and
// leaves the table untouched when a newer generation has already been
// applied, discarding the late-arriving stale result.
func (t *Table) Replace(generation uint64, rows []models.UnifiedRow) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation < t.applied {
		return false
	}
	t.applied = generation
	t.rows = make([]models.UnifiedRow, len(rows))
	copy(t.rows, rows)
	return true
}

// Snapshot returns a copy of the current collection. Callers may sort and
// filter the copy freely without affecting the canonical rows.
func (t *Table) Snapshot() []models.UnifiedRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]models.UnifiedRow, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// Len reports the current row count.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// ApplyPatch overwrites the designated earnings fields of the one row whose
// symbol matches. Fields absent from the patch are reset to the empty
// string, mirroring what the backend's updated payload means: the row's
// earnings state is now exactly this. Rows are never inserted or removed
// here. Returns false when no row matched.
func (t *Table) ApplyPatch(symbol string, fields map[string]string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.rows[i].Symbol != symbol {
			continue
		}
		t.rows[i].RetainedEarnings = fields[FieldRetainedEarnings]
		t.rows[i].ReinvestedEarnings = fields[FieldReinvestedEarnings]
		t.rows[i].Year = fields[FieldYear]
		t.rows[i].ExtractionError = fields[FieldExtractionError]
		return true
	}
	return false
}
