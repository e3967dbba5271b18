package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitloop-dev/triarb/internal/domain"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		symbols   []string
		limit     int
		wantSizes []int
	}{
		{
			name:      "seven symbols over three connections",
			symbols:   []string{"A", "B", "C", "D", "E", "F", "G"},
			limit:     3,
			wantSizes: []int{3, 2, 2},
		},
		{
			name:      "exact fit",
			symbols:   []string{"A", "B", "C", "D"},
			limit:     2,
			wantSizes: []int{2, 2},
		},
		{
			name:      "single partition",
			symbols:   []string{"A", "B"},
			limit:     150,
			wantSizes: []int{2},
		},
		{
			name:      "limit of one",
			symbols:   []string{"A", "B", "C"},
			limit:     1,
			wantSizes: []int{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Split(tt.symbols, tt.limit)
			require.NoError(t, err)
			require.Len(t, parts, len(tt.wantSizes))

			var flat []string
			for i, p := range parts {
				assert.Len(t, p, tt.wantSizes[i])
				assert.LessOrEqual(t, len(p), tt.limit)
				flat = append(flat, p...)
			}
			// Union of partitions equals the input, order preserved,
			// no duplication and no omission.
			assert.Equal(t, tt.symbols, flat)
		})
	}
}

func TestSplitInvalidInput(t *testing.T) {
	_, err := Split([]string{"A"}, 0)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Split([]string{"A"}, -5)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Split(nil, 10)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
