package fetch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSymbolVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain ticker", "AAPL", []string{"AAPL"}},
		{"dot class share", "BRK.B", []string{"BRK.B", "BRK-B"}},
		{"dash class share", "brk-b", []string{"BRK-B", "BRK.B"}},
		{"slash class share", "BRK/B", []string{"BRK/B", "BRK.B", "BRK-B"}},
		{"surrounding whitespace", "  msft ", []string{"MSFT"}},
		{"empty", "   ", nil},
	}

	for _, test := range tests {
		got := SymbolVariants(test.raw)
		if !cmp.Equal(got, test.want) {
			t.Errorf("%s: mismatching variants, got %v", test.name, cmp.Diff(test.want, got))
		}
	}
}
