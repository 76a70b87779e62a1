package matching

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// JSONPath evaluates expr against the body (parsed as JSON) and
// reports whether the result set is non-empty. A malformed expression
// or a body that fails to parse as JSON is reported as a non-match.
func JSONPath(expr string, body []byte) bool {
	path, err := jp.ParseString(expr)
	if err != nil {
		return false
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false
	}

	return len(path.Get(data)) > 0
}

// ValidateJSONPathExpression validates a JSONPath expression at
// admission time.
func ValidateJSONPathExpression(expr string) error {
	if _, err := jp.ParseString(expr); err != nil {
		return fmt.Errorf("invalid JSONPath expression %q: %w", expr, err)
	}
	return nil
}
