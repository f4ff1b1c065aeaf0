package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"dot separator", "12.34", "12.34", false},
		{"comma separator", "12,34", "12.34", false},
		{"integer", "100", "100", false},
		{"rounds half-up on third decimal", "12.345", "12.35", false},
		{"rounds down below half", "12.344", "12.34", false},
		{"zero is allowed", "0", "0", false},
		{"surrounding whitespace", "  9.99 ", "9.99", false},
		{"empty", "", "", true},
		{"explicit plus sign", "+5", "", true},
		{"negative", "-5", "", true},
		{"not a number", "abc", "", true},
		{"two separators", "1.2.3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12.34", "12.34"},
		{"100", "100.00"},
		{"0.5", "0.50"},
		{"-3.1", "-3.10"},
	}

	for _, tt := range tests {
		d, _ := decimal.NewFromString(tt.input)
		if got := FormatAmount(d); got != tt.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
