package matching

import (
	"regexp"
	"strings"
)

// Regex compiles pattern and reports whether actual contains a match.
// A malformed pattern is reported as a non-match.
func Regex(pattern, actual string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(actual)
}

// Wildcard converts pattern (where '*' stands for any run of
// characters) to a regex anchored at both ends and matches actual
// against it. Multiple '*' are supported.
func Wildcard(pattern, actual string) bool {
	re, err := regexp.Compile("^" + wildcardToRegex(pattern) + "$")
	if err != nil {
		return false
	}
	return re.MatchString(actual)
}

func wildcardToRegex(pattern string) string {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, ".*")
}

// ContainsWildcard reports whether s contains a '*' wildcard character.
func ContainsWildcard(s string) bool {
	return strings.Contains(s, "*")
}

// ContainsRegexMeta reports whether s contains a character that would
// be interpreted specially by the regex engine, beyond a plain literal.
func ContainsRegexMeta(s string) bool {
	return strings.ContainsAny(s, `.^$*+?()[]{}|\`)
}

// IsRegexLiteral reports whether s is written in the "/regex/" form,
// returning the unwrapped pattern when it is.
func IsRegexLiteral(s string) (pattern string, ok bool) {
	if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// StringOrRegex tries a literal match first, then falls back to
// treating expected as a regex pattern — the "value comparison is
// string-or-regex" rule used for header and query values.
func StringOrRegex(expected, actual string) bool {
	if expected == actual {
		return true
	}
	return Regex(expected, actual)
}

// Path matches a path spec against an actual path. The spec may be a
// literal, a "/regex/"-wrapped pattern, or a glob containing '*'.
func Path(spec, actual string) bool {
	if pattern, ok := IsRegexLiteral(spec); ok {
		return Regex(pattern, actual)
	}
	if ContainsWildcard(spec) {
		return Wildcard(spec, actual)
	}
	return spec == actual
}
