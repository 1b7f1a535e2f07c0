package importer

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"110.000,00", "110000"},
		{"5.000,00", "5000"},
		{"1.234.567,89", "1234567.89"},
		{"0,50", "0.5"},
		{"-2.500,00", "-2500"},
		{"5000", "5000"},
		{"  5.000,00  ", "5000"},
		{"", "0"},
		{"abc", "0"},
		{"12,34,56", "0"}, // two decimal marks
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseAmount(tt.input)
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAmountCanonicalEquality(t *testing.T) {
	// 5.000,00 and a bare 5000 must produce equal identity keys.
	a := ParseAmount("5.000,00")
	b := ParseAmount("5000")
	if amountKey(a) != amountKey(b) {
		t.Errorf("amountKey mismatch: %q vs %q", amountKey(a), amountKey(b))
	}
}

func TestRootCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"LCP-130109", "LCP-130109"},
		{"LCP-130109-02", "LCP-130109"},
		{"LCP-130109-02-EX", "LCP-130109"},
		{"LCP-130109-EX", "LCP-130109"},
		{"  LCP-130109-01  ", "LCP-130109"},
		{"LCP", "LCP"}, // degenerate, returned unchanged
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := RootCode(tt.input); got != tt.want {
				t.Errorf("RootCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsExpense(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"LCP-130109-02-EX", true},
		{"LCP-130109-EX", true},
		{"lcp-130109-ex", true},
		{"LCP-130109-02", false},
		{"LCP-130109", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsExpense(tt.input); got != tt.want {
				t.Errorf("IsExpense(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
		want   time.Time
	}{
		{"01.01.2025", true, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"31-12-2024", true, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"15.06.2025", true, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"31.02.2025", false, time.Time{}}, // not a calendar date
		{"2025-01-01", false, time.Time{}}, // wrong order
		{"", false, time.Time{}},
		{"garbage", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
