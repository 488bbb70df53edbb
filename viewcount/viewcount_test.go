package viewcount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"grouped", "1,234 views", 1234},
		{"millions decimal", "1.5M views", 1500000},
		{"thousands", "200K views", 200000},
		{"no data", "no data", 0},
		{"empty", "", 0},
		{"upper case", "3 VIEWS", 3},
		{"singular", "1 view", 1},
		{"no views", "No views", 0},
		{"lower suffix", "2.5k views", 2500},
		{"billions", "1B views", 1000000000},
		{"padded", "  12  views  ", 12},
		{"space before suffix", "4 M views", 4000000},
		{"nbsp", "7.1K\u00a0views", 7100},
		{"decimal without suffix truncates", "1.5 views", 1},
		{"exact decimal scaling", "1.15M views", 1150000},
		{"extra fraction digits truncate", "1.23456K views", 1234},
		{"large grouped", "1,000,000 views", 1000000},
		{"watching is not views", "12 watching", 0},
		{"trailing text", "12 views ago", 0},
		{"word only", "views", 0},
		{"saturates", "99,999,999,999,999,999,999 views", math.MaxInt64},
		{"saturates with suffix", "99999999999B views", math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_NeverNegative(t *testing.T) {
	for _, in := range []string{"-5 views", "-1.5M views", ",,, views", "1..5 views"} {
		assert.GreaterOrEqual(t, Normalize(in), int64(0), in)
	}
}

func TestParse(t *testing.T) {
	n, err := Parse("No views")
	require.ErrorIs(t, err, ErrNotViewCount)
	assert.Zero(t, n)

	n, err = Parse("500K views")
	require.NoError(t, err)
	assert.Equal(t, int64(500000), n)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-3, "0"},
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1250, "1.2K"},
		{999999, "999.9K"},
		{1500000, "1.5M"},
		{2000000000, "2B"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, n := range []int64{7, 1200, 3400000, 5000000000} {
		assert.Equal(t, n, Normalize(Format(n)+" views"))
	}
}
