package fetch

import (
	"strings"
)

// SymbolVariants returns the provider spellings to try for the provided ticker, starting
// with the normalized input followed by its dot, dash and slash class share notations.
func SymbolVariants(raw string) []string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return nil
	}

	candidates := []string{symbol}
	if strings.Contains(symbol, ".") {
		candidates = append(candidates, strings.ReplaceAll(symbol, ".", "-"))
	}
	if strings.Contains(symbol, "-") {
		candidates = append(candidates, strings.ReplaceAll(symbol, "-", "."))
	}
	if strings.Contains(symbol, "/") {
		candidates = append(candidates,
			strings.ReplaceAll(symbol, "/", "."),
			strings.ReplaceAll(symbol, "/", "-"))
	}

	variants := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}

		seen[candidate] = struct{}{}
		variants = append(variants, candidate)
	}

	return variants
}
