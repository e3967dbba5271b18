// Package catalog builds the immutable set of three-pair conversion cycles
// ("triangles") sharing a common quote currency. Construction is an
// intentional brute-force scan over the symbol universe: it runs once at
// startup on a universe in the low thousands and never on the hot path.
package catalog

import (
	"sort"
	"strings"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Build emits every Triangle reachable from quote:
//
//	leg 1: a symbol ending in quote (base = token1)
//	leg 2: a symbol whose prefix is token1 (remainder = token2)
//	leg 3: the symbol token2+quote
//
// Matching is plain prefix/suffix string stripping. That is fragile when
// one currency code prefixes another (ETH vs ETHW); the behavior is kept
// as-is for compatibility with the venue catalogs this was tuned against.
func Build(symbols []string, quote string) []domain.Triangle {
	universe := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		universe[s] = struct{}{}
	}

	var triangles []domain.Triangle
	for _, pairA := range symbols {
		if !strings.HasSuffix(pairA, quote) || pairA == quote {
			continue
		}
		token1 := strings.TrimSuffix(pairA, quote)
		if token1 == "" {
			continue
		}

		for _, pairB := range symbols {
			if !strings.HasPrefix(pairB, token1) {
				continue
			}
			token2 := strings.TrimPrefix(pairB, token1)
			if token2 == "" {
				continue
			}

			pairC := token2 + quote
			if _, ok := universe[pairC]; !ok {
				continue
			}

			triangles = append(triangles, domain.Triangle{
				PairA:  pairA,
				PairB:  pairB,
				PairC:  pairC,
				Token1: token1,
				Token2: token2,
				Quote:  quote,
			})
		}
	}
	return triangles
}

// UniqueSymbols returns the sorted distinct set of symbols referenced by
// any triangle. Live subscriptions are scoped to exactly this set, so the
// feed never carries symbols that participate in no cycle.
func UniqueSymbols(triangles []domain.Triangle) []string {
	seen := make(map[string]struct{}, len(triangles)*3)
	for _, t := range triangles {
		for _, sym := range t.Symbols() {
			seen[sym] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
