package forthcore

import (
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWord(t *testing.T) {
	vm := newTestVM(t)

	t.Run("splits on any whitespace", func(t *testing.T) {
		vm.SetStringInput("  foo \t bar\r\nbaz")
		for _, want := range []string{"foo", "bar", "baz"} {
			tok, err := vm.getWord()
			require.NoError(t, err)
			assert.Equal(t, want, tok)
		}
		_, err := vm.getWord()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("truncates overlong tokens", func(t *testing.T) {
		long := strings.Repeat("x", 40)
		vm.SetStringInput(long)
		tok, err := vm.getWord()
		require.NoError(t, err)
		assert.Len(t, tok, maxWordLength-1)
	})

	t.Run("only whitespace is EOF", func(t *testing.T) {
		vm.SetStringInput("   \n\t  ")
		_, err := vm.getWord()
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestGetCharFileInput(t *testing.T) {
	vm := newTestVM(t)
	vm.SetFileInput(strings.NewReader("ab"))

	b, err := vm.getChar()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)
	b, err = vm.getChar()
	require.NoError(t, err)
	assert.Equal(t, byte('b'), b)
	_, err = vm.getChar()
	assert.ErrorIs(t, err, io.EOF)
}

// negCell computes the two's-complement wraparound of -n at runtime,
// avoiding the untyped-constant overflow check that a literal
// "Cell(0) - n" would trigger at compile time for unsigned Cell.
func negCell(n uint64) Cell {
	return Cell(0) - Cell(n)
}

func TestParseNumber(t *testing.T) {
	for _, tc := range []struct {
		token string
		base  Cell
		want  Cell
		ok    bool
	}{
		{"0", 10, 0, true},
		{"42", 10, 42, true},
		{"-7", 10, negCell(7), true},
		{"+9", 10, 9, true},
		{"ff", 16, 255, true},
		{"FF", 16, 255, true},
		{"zz", 36, 35*36 + 35, true},
		{"101", 2, 5, true},
		{"18446744073709551615", 10, ^Cell(0), true},
		{"0x1f", 0, 31, true},
		{"0X1F", 0, 31, true},
		{"017", 0, 15, true},
		{"9", 0, 9, true},
		{"-0x10", 0, negCell(16), true},
		{"", 10, 0, false},
		{"-", 10, 0, false},
		{"12x4", 10, 0, false},
		{"abc", 10, 0, false},
		{"2", 2, 0, false},
		{"1", 1, 0, false},
		{"1", 37, 0, false},
	} {
		got, ok := parseNumber(tc.token, tc.base)
		assert.Equal(t, tc.ok, ok, "ok for %q base %d", tc.token, tc.base)
		if tc.ok {
			assert.Equal(t, tc.want, got, "value for %q base %d", tc.token, tc.base)
		}
	}
}

func TestParseNumberMatchesFormat(t *testing.T) {
	values := []uint64{0, 1, 7, 42, 1 << 20, 1<<63 - 1, 1 << 63, ^uint64(0)}
	for base := 2; base <= 36; base++ {
		for _, v := range values {
			token := strconv.FormatUint(v, base)
			got, ok := parseNumber(token, Cell(base))
			require.True(t, ok, "parse %q base %d", token, base)
			assert.Equal(t, Cell(v), got, "roundtrip %q base %d", token, base)
		}
	}
}
