package sensor

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseField converts a raw JSON value from the sensor API into a Field.
//
// The API is loose about types: values arrive as numbers ("25", 25.4) or
// as strings ("25", " 25 °C"). Strings are read like parseInt in a browser:
// leading whitespace is skipped, an optional sign and the longest run of
// decimal digits (or hex digits after "0x") is taken, and the rest is
// ignored. Numbers are truncated toward zero. Anything else is invalid.
func ParseField(raw json.RawMessage) Field {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Field{}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Field{}
		}
		return ParseText(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Field{}
		}
		return fromNumber(f)
	}
	return Field{}
}

// ParseText parses the integer prefix of s.
func ParseText(s string) Field {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return Field{}
	}

	v, err := strconv.ParseInt(s[:end], base, 0)
	if err != nil {
		return Field{}
	}
	if neg {
		v = -v
	}
	return Field{Value: int(v), Valid: true}
}

// maxExact bounds numbers that truncate cleanly into an int.
const maxExact = 9e18

func fromNumber(f float64) Field {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Field{}
	}
	abs := math.Abs(f)
	// Very large and very small numbers print in exponent form, and
	// parseInt stops at the exponent marker.
	if abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		return ParseText(strconv.FormatFloat(f, 'g', -1, 64))
	}
	if abs >= maxExact {
		return Field{}
	}
	return Field{Value: int(math.Trunc(f)), Valid: true}
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}
