package activity

import (
	"strconv"
	"strings"
)

// ParseDuration converts a duration string to decimal hours. Accepted forms are H:MM
// and decimals with either a dot or a comma separator. Each part is read from its
// leading signed number, so "-1:30" is -0.5 and "7,5h" is 7.5. Anything else is zero.
func ParseDuration(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if h, rest, ok := strings.Cut(s, ":"); ok {
		m, _, _ := strings.Cut(rest, ":")
		return leadingInt(h) + leadingInt(m)/60
	}
	if v := leadingFloat(strings.Replace(s, ",", ".", 1)); v != 0 {
		return v
	}
	return 0
}

// splitSign trims leading space and returns the sign and the remainder.
func splitSign(s string) (float64, string) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	switch {
	case strings.HasPrefix(s, "-"):
		return -1, s[1:]
	case strings.HasPrefix(s, "+"):
		return 1, s[1:]
	}
	return 1, s
}

func digitsPrefix(s string, isDigit func(byte) bool) string {
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return s[:end]
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// leadingInt reads a signed integer prefix; a 0x prefix switches to base 16.
func leadingInt(s string) float64 {
	sign, s := splitSign(s)
	base, isDigit := 10, isDecimal
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit, s = 16, isHex, s[2:]
	}
	digits := digitsPrefix(s, isDigit)
	if digits == "" {
		return 0
	}
	if base == 10 {
		v, _ := strconv.ParseFloat(digits, 64)
		return sign * v
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0
	}
	return sign * float64(v)
}

// leadingFloat reads the longest decimal prefix, with an optional fraction and exponent.
// Infinity is not accepted.
func leadingFloat(s string) float64 {
	sign, s := splitSign(s)
	intPart := digitsPrefix(s, isDecimal)
	end := len(intPart)
	var frac string
	if end < len(s) && s[end] == '.' {
		frac = digitsPrefix(s[end+1:], isDecimal)
		end += 1 + len(frac)
	}
	if intPart == "" && frac == "" {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if d := digitsPrefix(s[exp:], isDecimal); d != "" {
			end = exp + len(d)
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return sign * v
}
