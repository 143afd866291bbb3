package view

import "github.com/username/tadawulboard/src/models"

// Field names of the extraction table, as the backend emits them. DATE is
// the row key; the rest repeat the same nationality breakdown across four
// metric families.
const (
	FieldDate = "DATE"

	FieldSaudiValueTradedIndividuals  = "Saudi_ValueTraded_Individuals"
	FieldSaudiValueTradedInstitutions = "Saudi_ValueTraded_Institutions"
	FieldGCCValueTradedTotal          = "GCC_ValueTraded_Total"
	FieldForeignValueTradedTotal      = "Foreign_ValueTraded_Total"

	FieldSaudiHoldingValueIndividuals  = "Saudi_Holding_Value_Individuals"
	FieldSaudiHoldingValueInstitutions = "Saudi_Holding_Value_Institutions"
	FieldGCCHoldingValueTotal          = "GCC_Holding_Value_Total"
	FieldForeignHoldingValueTotal      = "Foreign_Holding_Value_Total"

	FieldSaudiWeeklyChangeIndividuals  = "Saudi_WeeklyChange_Individuals"
	FieldSaudiWeeklyChangeInstitutions = "Saudi_WeeklyChange_Institutions"
	FieldGCCWeeklyChangeTotal          = "GCC_WeeklyChange_Total"
	FieldForeignWeeklyChangeTotal      = "Foreign_WeeklyChange_Total"

	FieldSaudiOwnershipValueIndividuals  = "Saudi_OwnershipValue_Individuals"
	FieldSaudiOwnershipValueInstitutions = "Saudi_OwnershipValue_Institutions"
	FieldGCCOwnershipValueTotal          = "GCC_OwnershipValue_Total"
	FieldForeignOwnershipValueTotal      = "Foreign_OwnershipValue_Total"
)

// ExtractionFields is the fixed, ordered field set of the extraction table.
// The mapping from backend data is by name, not position.
var ExtractionFields = []string{
	FieldDate,
	FieldSaudiValueTradedIndividuals,
	FieldSaudiValueTradedInstitutions,
	FieldGCCValueTradedTotal,
	FieldForeignValueTradedTotal,
	FieldSaudiHoldingValueIndividuals,
	FieldSaudiHoldingValueInstitutions,
	FieldGCCHoldingValueTotal,
	FieldForeignHoldingValueTotal,
	FieldSaudiWeeklyChangeIndividuals,
	FieldSaudiWeeklyChangeInstitutions,
	FieldGCCWeeklyChangeTotal,
	FieldForeignWeeklyChangeTotal,
	FieldSaudiOwnershipValueIndividuals,
	FieldSaudiOwnershipValueInstitutions,
	FieldGCCOwnershipValueTotal,
	FieldForeignOwnershipValueTotal,
}

// HeaderCell is one cell in one tier of the hierarchical grid header. Span
// counts leaf columns underneath it.
type HeaderCell struct {
	Title string `json:"title"`
	Span  int    `json:"span"`
	Field string `json:"field,omitempty"` // set only on leaf cells
}

// GridHeader is the three-tier header of the hierarchical grid: metric
// family, nationality group, leaf column.
type GridHeader struct {
	Families      []HeaderCell `json:"families"`
	Nationalities []HeaderCell `json:"nationalities"`
	Leaves        []HeaderCell `json:"leaves"`
}

type leaf struct {
	title string
	field string
}

type nationality struct {
	title  string
	leaves []leaf
}

type family struct {
	title  string
	groups []nationality
}

func breakdown(familyTitle, saudiInd, saudiInst, gccTotal, foreignTotal string) family {
	return family{
		title: familyTitle,
		groups: []nationality{
			{title: "Saudi", leaves: []leaf{
				{title: "Individuals", field: saudiInd},
				{title: "Institutions", field: saudiInst},
			}},
			{title: "GCC", leaves: []leaf{{title: "Total", field: gccTotal}}},
			{title: "Foreign", leaves: []leaf{{title: "Total", field: foreignTotal}}},
		},
	}
}

var gridFamilies = []family{
	{title: "Date", groups: []nationality{{title: "", leaves: []leaf{{title: "Date", field: FieldDate}}}}},
	breakdown("Value Traded",
		FieldSaudiValueTradedIndividuals, FieldSaudiValueTradedInstitutions,
		FieldGCCValueTradedTotal, FieldForeignValueTradedTotal),
	breakdown("Holding Value",
		FieldSaudiHoldingValueIndividuals, FieldSaudiHoldingValueInstitutions,
		FieldGCCHoldingValueTotal, FieldForeignHoldingValueTotal),
	breakdown("Weekly Change",
		FieldSaudiWeeklyChangeIndividuals, FieldSaudiWeeklyChangeInstitutions,
		FieldGCCWeeklyChangeTotal, FieldForeignWeeklyChangeTotal),
	breakdown("Ownership Value",
		FieldSaudiOwnershipValueIndividuals, FieldSaudiOwnershipValueInstitutions,
		FieldGCCOwnershipValueTotal, FieldForeignOwnershipValueTotal),
}

// BuildGridHeader assembles the multi-row header from the fixed field list.
// Spans are derived, so adding a field to a family updates every tier.
func BuildGridHeader() GridHeader {
	var h GridHeader
	for _, fam := range gridFamilies {
		famSpan := 0
		for _, grp := range fam.groups {
			grpSpan := len(grp.leaves)
			famSpan += grpSpan
			h.Nationalities = append(h.Nationalities, HeaderCell{Title: grp.title, Span: grpSpan})
			for _, lf := range grp.leaves {
				h.Leaves = append(h.Leaves, HeaderCell{Title: lf.title, Span: 1, Field: lf.field})
			}
		}
		h.Families = append(h.Families, HeaderCell{Title: fam.title, Span: famSpan})
	}
	return h
}

// FormatColumn renders one extraction column against the fixed field set.
// The date passes through verbatim; every other field gets the three-way
// numeric policy, including fields the column never had.
func FormatColumn(col models.ExtractionColumn) map[string]FormattedValue {
	out := make(map[string]FormattedValue, len(ExtractionFields))
	for _, field := range ExtractionFields {
		value := col.Data[field]
		if field == FieldDate {
			label := value
			if isNoData(value) {
				label = NoDataLabel
			}
			out[field] = FormattedValue{Label: label, Class: ClassText}
			continue
		}
		out[field] = FormatValue(value)
	}
	return out
}
