package matching

import "strings"

// StandardHeaders is the fixed whitelist of headers ignored under
// STRICT match_type — unless the expectation explicitly asserts on
// one of them, in which case it is removed from the whitelist for
// that comparison.
var StandardHeaders = map[string]bool{
	"host":            true,
	"connection":      true,
	"content-length":  true,
	"user-agent":      true,
	"accept":          true,
	"accept-encoding": true,
	"content-type":    true,
}

// MultiValue reports whether every key in expected is present in
// actual with a matching value (string-or-regex, tried in turn).
// Keys are compared case-insensitively. When strict is true, the
// actual key set (modulo whitelist, minus any key explicitly present
// in expected) must not contain keys absent from expected.
func MultiValue(expected map[string][]string, actual map[string][]string, strict bool, whitelist map[string]bool) bool {
	lowerActual := lowerKeys(actual)
	lowerExpected := lowerKeys(expected)

	for name, values := range lowerExpected {
		actualValues, ok := lowerActual[name]
		if !ok {
			return false
		}
		if !valuesMatch(values, actualValues) {
			return false
		}
	}

	if strict {
		for name := range lowerActual {
			if _, expectedHasIt := lowerExpected[name]; expectedHasIt {
				continue
			}
			if whitelist != nil && whitelist[name] {
				continue
			}
			return false
		}
	}

	return true
}

// valuesMatch reports whether every expected value has a matching
// actual value (set semantics, not list-order), each compared by
// string-or-regex.
func valuesMatch(expected, actual []string) bool {
	for _, exp := range expected {
		found := false
		for _, act := range actual {
			if StringOrRegex(exp, act) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func lowerKeys(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
