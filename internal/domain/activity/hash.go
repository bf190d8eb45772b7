package activity

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// HashPrefix starts every activity hash.
const HashPrefix = "act_"

// Hash derives the identity of an activity from its date, collaborator, description and
// original amount. Two imports of the same row produce the same hash. Collisions are not
// detected: colliding rows are treated as one activity.
func Hash(o Original) string {
	key := o.Date + "|" + o.Collaborator + "|" + o.Description + "|" + formatNumber(o.Amount)

	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = (h << 5) - h + int32(c)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return HashPrefix + strconv.FormatInt(n, 36)
}

// formatNumber renders v the way the persisted documents have always keyed amounts:
// shortest round-trip digits, exponent form only for very large or very small values.
func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
