package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromRune(t *testing.T) {
	tests := []struct {
		r    rune
		want Key
	}{
		{'A', A},
		{'B', B},
		{'C', C},
		{'D', D},
		{'1', BackwardDown},
		{'2', Down},
		{'3', ForwardDown},
		{'4', Backward},
		{'6', Forward},
		{'7', BackwardUp},
		{'8', Up},
		{'9', ForwardUp},
	}

	for _, tt := range tests {
		got, err := KeyFromRune(tt.r)
		require.NoError(t, err, "KeyFromRune(%q)", tt.r)
		assert.Equal(t, tt.want, got, "KeyFromRune(%q)", tt.r)
	}
}

func TestKeyFromRuneUnknown(t *testing.T) {
	for _, r := range []rune{'0', '5', 'N', 'a', 'E', 'p', ' ', '>', '[', '・'} {
		_, err := KeyFromRune(r)
		assert.True(t, errors.Is(err, ErrKeyName), "KeyFromRune(%q) error = %v", r, err)
	}
}

func TestKeyContains(t *testing.T) {
	tests := []struct {
		k, other Key
		want     bool
	}{
		{Empty(), Empty(), true},
		{A, Empty(), true},
		{Empty(), A, false},
		{A | C, C, true},
		{A | C, A | C, true},
		{A | C, A | B, false},
		{Forward | C, Forward, true},
		{ForwardDown, Forward, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.k.Contains(tt.other), "Key(%s).Contains(%s)", tt.k, tt.other)
	}
}

func TestKeyUnion(t *testing.T) {
	k := Union(Empty(), Backward)
	k = Union(k, C)
	assert.True(t, k.Contains(Backward))
	assert.True(t, k.Contains(C))
	assert.False(t, k.Contains(A))
	assert.Equal(t, Backward|C, Backward.With(C))
	assert.True(t, Union(Key(0xFFFF), 0).Valid())
	assert.False(t, Key(0xFFFF).Valid())
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		k    Key
		want string
	}{
		{Empty(), ""},
		{C | Forward, "6C"},
		{D | A | Backward | Down, "42AD"},
		{ForwardUp | BackwardDown | Up, "891"},
		{Neutral | B, "NB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.k.String())
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("C6")
	require.NoError(t, err)
	assert.Equal(t, Forward|C, k)

	k, err = ParseKey("")
	require.NoError(t, err)
	assert.True(t, k.IsEmpty())

	_, err = ParseKey("6 C")
	assert.ErrorIs(t, err, ErrKeyName)

	// 回中的输出形式不回读
	_, err = ParseKey(Neutral.String())
	assert.ErrorIs(t, err, ErrKeyName)
}

func TestKeyTextRoundTrip(t *testing.T) {
	for _, k := range []Key{Empty(), A | B | C | D, Forward | Up, BackwardUp | ForwardDown} {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var back Key
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}
}
