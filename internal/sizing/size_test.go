package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestMaxSafeInteger(t *testing.T) {
	assert.Equal(t, uint64(9007199254740991), MaxSafeInteger)
}

func TestToInt64(t *testing.T) {
	v, err := ToInt64(42, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = ToInt64(math.MaxUint64, errOverflow)
	assert.ErrorIs(t, err, errOverflow)
}

func TestAddUint64(t *testing.T) {
	sum, ok := AddUint64(1, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), sum)

	_, ok = AddUint64(math.MaxUint64, 1)
	assert.False(t, ok)
}

func TestRange(t *testing.T) {
	tests := []struct {
		name                string
		start, offset, size uint64
		wantOff, wantN      int64
		wantErr             bool
	}{
		{"simple", 16, 10, 5, 26, 5, false},
		{"zero size", 100, 0, 0, 100, 0, false},
		{"offset overflow", math.MaxUint64, 1, 0, 0, 0, true},
		{"end overflow", 1, 1, math.MaxUint64, 0, 0, true},
		{"beyond int64", math.MaxInt64, 1, 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, n, err := Range(tt.start, tt.offset, tt.size, errOverflow)
			if tt.wantErr {
				assert.ErrorIs(t, err, errOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOff, off)
			assert.Equal(t, tt.wantN, n)
		})
	}
}
