package pipeline

import (
	"slices"
	"strings"
)

// TickerSet is a set of upper-case ticker symbols.
type TickerSet map[string]struct{}

// NewTickerSet builds a set from symbols, normalizing case and whitespace.
// Empty symbols are ignored.
func NewTickerSet(symbols ...string) TickerSet {
	s := make(TickerSet, len(symbols))
	for _, sym := range symbols {
		s.Add(sym)
	}
	return s
}

// Add inserts a symbol.
func (s TickerSet) Add(symbol string) {
	symbol = NormalizeTicker(symbol)
	if symbol != "" {
		s[symbol] = struct{}{}
	}
}

// Contains reports whether symbol is in the set.
func (s TickerSet) Contains(symbol string) bool {
	_, ok := s[NormalizeTicker(symbol)]
	return ok
}

// Sorted returns the members in lexical order.
func (s TickerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	slices.Sort(out)
	return out
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
