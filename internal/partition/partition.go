// Package partition splits the instrument universe across a fixed number of
// feed connections while respecting the venue's per-connection subscription
// limit.
package partition

import (
	"fmt"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Split divides symbols into ceil(len(symbols)/limit) contiguous partitions.
// The remainder is distributed to the earliest partitions, so partition
// sizes differ by at most one. The function is pure and deterministic given
// the input order.
func Split(symbols []string, limit int) ([][]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("partition: symbols-per-connection limit must be positive, got %d: %w",
			limit, domain.ErrInvalidConfig)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("partition: empty symbol universe: %w", domain.ErrInvalidConfig)
	}

	n := (len(symbols) + limit - 1) / limit
	base := len(symbols) / n
	rem := len(symbols) % n

	parts := make([][]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		parts = append(parts, symbols[start:start+size])
		start += size
	}
	return parts, nil
}
