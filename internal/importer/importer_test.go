package importer

import "testing"

func TestParseVariant(t *testing.T) {
	tests := []struct {
		input  string
		want   Variant
		wantOK bool
	}{
		{"budget", VariantBudget, true},
		{"realized", VariantRealized, true},
		{"committed", VariantCommitted, true},
		{"real", VariantRealized, true},
		{"comprometido", VariantCommitted, true},
		{"presupuesto", VariantBudget, true},
		{"  Budget  ", VariantBudget, true},
		{"payroll", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseVariant(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseVariant(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
