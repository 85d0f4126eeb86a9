package bitmath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostSignificantBit(t *testing.T) {
	cases := []struct {
		input *uint256.Int
		want  uint
	}{
		{uint256.NewInt(1), 0},
		{uint256.NewInt(2), 1},
		{uint256.NewInt(3), 1},
		{uint256.NewInt(8), 3},
		{new(uint256.Int).Lsh(uint256.NewInt(1), 255), 255},
		{new(uint256.Int).Not(uint256.NewInt(0)), 255},
	}

	for _, tc := range cases {
		got, err := MostSignificantBit(tc.input)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "msb(%s)", tc.input)
	}
}

func TestLeastSignificantBit(t *testing.T) {
	cases := []struct {
		input *uint256.Int
		want  uint
	}{
		{uint256.NewInt(1), 0},
		{uint256.NewInt(2), 1},
		{uint256.NewInt(3), 0},
		{uint256.NewInt(8), 3},
		{new(uint256.Int).Lsh(uint256.NewInt(1), 255), 255},
		{new(uint256.Int).Lsh(uint256.NewInt(3), 100), 100},
	}

	for _, tc := range cases {
		got, err := LeastSignificantBit(tc.input)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "lsb(%s)", tc.input)
	}
}

func TestZeroInput(t *testing.T) {
	_, err := MostSignificantBit(new(uint256.Int))
	assert.ErrorIs(t, err, ErrInputIsZero)

	_, err = LeastSignificantBit(new(uint256.Int))
	assert.ErrorIs(t, err, ErrInputIsZero)
}
