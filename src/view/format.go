package view

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// NoDataLabel is shown wherever a figure is absent. The UI is bilingual but
// the "no data" marker is rendered in Arabic everywhere.
const NoDataLabel = "لا توجد بيانات"

// Value display classes. Purely presentational; the stored strings are
// never changed.
const (
	ClassNoData   = "no-data"
	ClassText     = "text"
	ClassNegative = "negative"
	ClassZero     = "zero"
	ClassPositive = "positive"
)

// FormattedValue is one grid cell ready for rendering.
type FormattedValue struct {
	Label string `json:"label"`
	Class string `json:"class"`
}

// isNoData reports whether a stored string means "absent". The sources
// variously emit the empty string, "null" and "undefined" for missing
// figures; all three are the same sentinel. Normalization happens here, at
// render time, never in storage.
func isNoData(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "undefined":
		return true
	}
	return false
}

// numericValue parses a stored figure for ordering. The no-data sentinels
// and non-numeric strings report ok=false; they are not numeric zero and
// must sort behind every real number, negatives included.
func numericValue(s string) (float64, bool) {
	if isNoData(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatValue applies the three-way display policy: absent values get the
// no-data label, non-numeric strings pass through verbatim, and numbers are
// thousands-separated and classed by sign.
func FormatValue(s string) FormattedValue {
	if isNoData(s) {
		return FormattedValue{Label: NoDataLabel, Class: ClassNoData}
	}
	trimmed := strings.TrimSpace(s)
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return FormattedValue{Label: s, Class: ClassText}
	}

	var label string
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		label = humanize.Comma(int64(v))
	} else {
		label = humanize.CommafWithDigits(v, 2)
	}

	class := ClassZero
	if v < 0 {
		class = ClassNegative
	} else if v > 0 {
		class = ClassPositive
	}
	return FormattedValue{Label: label, Class: class}
}
