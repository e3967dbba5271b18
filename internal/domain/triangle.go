package domain

// Triangle is an ordered triple of spot symbols whose chained conversions
// start and end at the same quote currency:
//
//	quote --buy PairA--> token1 --sell PairB--> token2 --sell PairC--> quote
//
// Triangles are built once at startup from the instrument universe and are
// read-only afterwards.
type Triangle struct {
	PairA string
	PairB string
	PairC string

	// Token1 and Token2 are the intermediate currencies, Quote the common
	// quote currency the cycle starts and ends in.
	Token1 string
	Token2 string
	Quote  string
}

// Key returns the canonical "PairA-PairB-PairC" identifier used to key
// results maps and persisted reports.
func (t Triangle) Key() string {
	return t.PairA + "-" + t.PairB + "-" + t.PairC
}

// Symbols returns the three pair symbols in leg order.
func (t Triangle) Symbols() [3]string {
	return [3]string{t.PairA, t.PairB, t.PairC}
}
