// Package viewcount converts YouTube's human-readable view counts
// ("1,234 views", "1.5M views") into integers and back.
package viewcount

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// pattern matches an optional grouped number, an optional K/M/B suffix and
// the word "view"/"views", ignoring case and surrounding whitespace.
var pattern = regexp.MustCompile(`(?i)^\s*([\d,]+(?:\.\d+)?)?\s*([kmb])?\s*views?\s*$`)

// exponents maps a magnitude suffix to its power of ten.
var exponents = map[string]int{
	"":  0,
	"k": 3,
	"m": 6,
	"b": 9,
}

// Normalize parses a view-count string. It never fails: anything that does
// not look like a view count ("No views", "", "12 watching") yields 0.
//
// Without a suffix the fractional part is dropped ("1.5 views" is 1). With a
// suffix the value is scaled in exact decimal arithmetic and truncated, so
// "1.15M views" is 1150000. Counts beyond int64 saturate at math.MaxInt64.
func Normalize(text string) int64 {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	m := pattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return 0
	}

	digits := strings.ReplaceAll(m[1], ",", "")
	whole, frac, _ := strings.Cut(digits, ".")
	if whole == "" {
		return 0
	}
	exp := exponents[strings.ToLower(m[2])]

	// Keep at most exp fractional digits, right-padded: 1.5 with M -> 500000.
	if len(frac) > exp {
		frac = frac[:exp]
	}
	frac += strings.Repeat("0", exp-len(frac))

	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return 0
	}
	if !n.IsInt64() {
		return math.MaxInt64
	}
	return n.Int64()
}

// Parse is Normalize with an explicit failure for text that is not a view
// count. Callers that need to tell "0 views" from "unparseable" use it.
func Parse(text string) (int64, error) {
	if !pattern.MatchString(strings.ReplaceAll(text, "\u00a0", " ")) {
		return 0, ErrNotViewCount
	}
	return Normalize(text), nil
}

// ErrNotViewCount is returned by Parse for text without a view count.
var ErrNotViewCount = errors.New("viewcount: not a view count")

// Format renders n in the compact form YouTube uses ("999", "1.2K", "3.4M",
// "1B"). One decimal is kept and truncated, never rounded up.
func Format(n int64) string {
	if n < 0 {
		n = 0
	}
	switch {
	case n < 1_000:
		return strconv.FormatInt(n, 10)
	case n < 1_000_000:
		return compact(n, 1_000, "K")
	case n < 1_000_000_000:
		return compact(n, 1_000_000, "M")
	default:
		return compact(n, 1_000_000_000, "B")
	}
}

func compact(n, unit int64, suffix string) string {
	tenths := n / (unit / 10)
	s := strconv.FormatInt(tenths/10, 10)
	if r := tenths % 10; r != 0 {
		s += "." + strconv.FormatInt(r, 10)
	}
	return s + suffix
}
