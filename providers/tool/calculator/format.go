package calculator

import (
	"math"
	"strconv"
	"strings"
)

// Format renders a value the way the calculator reports it: rounded to six
// decimal places with trailing zeros and a trailing decimal point removed.
// Integral values therefore print without a fractional part, and negative
// zero prints as "0".
func Format(value float64) string {
	text := strconv.FormatFloat(value, 'f', 6, 64)
	if strings.Contains(text, ".") {
		text = strings.TrimRight(text, "0")
		text = strings.TrimSuffix(text, ".")
	}
	if text == "-0" {
		return "0"
	}
	return text
}

// Reformat parses a previously formatted result and formats it again.
// Formatting is idempotent, so Reformat(Format(v)) == Format(v).
func Reformat(text string) (string, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return "", err
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return "", ErrNotFinite
	}
	return Format(value), nil
}
