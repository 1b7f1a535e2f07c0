package importer

import "strings"

// column names a field and pins it to a fixed index in the tab-split row.
// Layouts are fixed per export variant; they are schema descriptions, not
// configuration. A row shorter than the highest index is rejected as a whole
// (short_row skip) so format drift fails loudly instead of silently shifting
// fields.
type column struct {
	name  string
	index int
}

// layout is the ordered column schema of one export variant.
type layout struct {
	variant Variant
	columns []column
	// codeCol is the index of the LCP code. Budget and realized exports lead
	// with it; committed exports lead with the reference document, so the
	// marker check applies to this column rather than the raw line.
	codeCol int
}

var budgetLayout = layout{
	variant: VariantBudget,
	columns: []column{
		{"code", 0},
		{"name", 1},
		{"user", 2},
		{"date", 3},
		{"amount", 4},
		{"currency", 5},
	},
	codeCol: 0,
}

var realizedLayout = layout{
	variant: VariantRealized,
	columns: []column{
		{"code", 0},
		{"description", 1},
		{"amount", 2},
		{"currency", 3},
		{"order_ref", 4},
		{"order_date", 5},
	},
	codeCol: 0,
}

var committedLayout = layout{
	variant: VariantCommitted,
	columns: []column{
		{"ref_doc", 0},
		{"doc_date", 1},
		{"code", 2},
		{"description", 3},
		{"amount", 4},
		{"currency", 5},
	},
	codeCol: 2,
}

// width is the minimum number of tab-separated fields a row must have.
func (l layout) width() int {
	max := 0
	for _, c := range l.columns {
		if c.index > max {
			max = c.index
		}
	}
	return max + 1
}

// extract splits a line on tabs and returns the named fields, trimmed. The
// boolean is false when the row is too short for the schema.
func (l layout) extract(line string) (map[string]string, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < l.width() {
		return nil, false
	}
	out := make(map[string]string, len(l.columns))
	for _, c := range l.columns {
		out[c.name] = strings.TrimSpace(fields[c.index])
	}
	return out, true
}

// matches reports whether a trimmed line belongs to this variant: the code
// column must carry the LCP prefix. For layouts with codeCol 0 this reduces
// to a cheap prefix check on the line itself.
func (l layout) matches(line string) bool {
	if l.codeCol == 0 {
		return strings.HasPrefix(line, codePrefix)
	}
	fields := strings.Split(line, "\t")
	if len(fields) <= l.codeCol {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(fields[l.codeCol]), codePrefix)
}
