package movements

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeNewStock(t *testing.T) {
	tests := []struct {
		name string
		typ  MovementType
		prev int64
		qty  int64
		want int64
	}{
		{"entry adds", TypeEntry, 10, 4, 14},
		{"exit subtracts", TypeExit, 10, 4, 6},
		{"transfer subtracts at source", TypeTransfer, 5, 2, 3},
		{"adjustment sets absolute level", TypeAdjustment, 10, 7, 7},
		{"adjustment to zero", TypeAdjustment, 10, 0, 0},
		{"entry from zero", TypeEntry, 0, 3, 3},
		{"unknown type keeps previous", MovementType("bogus"), 10, 4, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ComputeNewStock(tc.typ, tc.prev, tc.qty))
		})
	}
}
