package matching

import (
	"encoding/json"
	"reflect"
)

// JSON-Unit placeholder strings recognised inside an expected document.
// They signal a type-level rather than value-level match.
const (
	placeholderIgnore    = "${json-unit.ignore}"
	placeholderAnyString = "${json-unit.any-string}"
	placeholderAnyNumber = "${json-unit.any-number}"
	placeholderAnyBool   = "${json-unit.any-boolean}"
	placeholderAnyObject = "${json-unit.any-object}"
	placeholderAnyArray  = "${json-unit.any-array}"
)

// JSONExact reports whether actual deep-equals expected: equal object
// key sets, equal array length and order, honouring JSON-Unit
// placeholders wherever they appear in expected.
func JSONExact(expected, actual any) bool {
	return jsonEqual(expected, actual, false)
}

// JSONContains reports whether every key/value in expected is present
// and equal in actual. Arrays match by containment element-wise:
// expected[i] must match actual[i] for every index in expected.
func JSONContains(expected, actual any) bool {
	return jsonEqual(expected, actual, true)
}

func jsonEqual(expected, actual any, contains bool) bool {
	if s, ok := expected.(string); ok {
		if matched, isPlaceholder := matchPlaceholder(s, actual); isPlaceholder {
			return matched
		}
	}

	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		if !contains && len(exp) != len(act) {
			return false
		}
		for k, v := range exp {
			av, present := act[k]
			if !present {
				return false
			}
			if !jsonEqual(v, av, contains) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return false
		}
		if !contains && len(exp) != len(act) {
			return false
		}
		if contains && len(exp) > len(act) {
			return false
		}
		for i, v := range exp {
			if !jsonEqual(v, act[i], contains) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(expected, actual)
	}
}

func matchPlaceholder(s string, actual any) (matched, isPlaceholder bool) {
	switch s {
	case placeholderIgnore:
		return true, true
	case placeholderAnyString:
		_, ok := actual.(string)
		return ok, true
	case placeholderAnyNumber:
		_, ok := actual.(float64)
		return ok, true
	case placeholderAnyBool:
		_, ok := actual.(bool)
		return ok, true
	case placeholderAnyObject:
		_, ok := actual.(map[string]any)
		return ok, true
	case placeholderAnyArray:
		_, ok := actual.([]any)
		return ok, true
	default:
		return false, false
	}
}

// BodyJSON parses body as JSON and compares it against expected. A
// body that fails to parse is a non-match.
func BodyJSON(expected any, body []byte, contains bool) bool {
	var actual any
	if err := json.Unmarshal(body, &actual); err != nil {
		return false
	}
	if contains {
		return JSONContains(expected, actual)
	}
	return JSONExact(expected, actual)
}
