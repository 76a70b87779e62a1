package expectation

import (
	"fmt"
	"regexp"

	"github.com/beevik/etree"

	"github.com/getmockd/mockd/internal/matching"
)

// ValidationError reports an admission-time rejection of an expectation
// document.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Validate runs the admission gate described in spec §4.3: exactly one
// action, match_type/priority well-formedness, and request-matcher
// well-formedness (exactly one body variant already enforced by
// BodyMatcher.UnmarshalJSON; regex compiles; JSONPath/XPath parse).
func Validate(e *Expectation) error {
	if !e.HasAction() {
		return &ValidationError{Field: "httpResponse/httpForward", Message: "exactly one of httpResponse or httpForward is required"}
	}
	if e.Priority < 0 {
		return &ValidationError{Field: "priority", Message: "priority must be >= 0"}
	}

	switch e.RequestMatcher.MatchType {
	case "", Strict, OnlyMatchingFields:
	default:
		return &ValidationError{Field: "httpRequest.matchType", Message: fmt.Sprintf("unknown matchType: %s", e.RequestMatcher.MatchType)}
	}

	if err := validateRequestMatcher(&e.RequestMatcher); err != nil {
		return err
	}
	if e.CannedResponse != nil {
		if err := validateCannedResponse(e.CannedResponse); err != nil {
			return err
		}
	}
	if e.Forward != nil {
		if err := validateForward(e.Forward); err != nil {
			return err
		}
	}
	return nil
}

func validateRequestMatcher(m *RequestMatcher) error {
	if m.Path != nil {
		if pattern, ok := matching.IsRegexLiteral(m.Path.Value); ok {
			if _, err := regexp.Compile(pattern); err != nil {
				return &ValidationError{Field: "httpRequest.path", Message: fmt.Sprintf("invalid regex: %s", err.Error())}
			}
		}
	}
	if m.Body == nil {
		return nil
	}
	switch m.Body.Kind {
	case BodyRegex:
		if _, err := regexp.Compile(m.Body.RegexPattern); err != nil {
			return &ValidationError{Field: "httpRequest.body.regex", Message: fmt.Sprintf("invalid regex: %s", err.Error())}
		}
	case BodyJSONPath:
		if err := matching.ValidateJSONPathExpression(m.Body.JSONPathExpr); err != nil {
			return &ValidationError{Field: "httpRequest.body.jsonpath", Message: err.Error()}
		}
	case BodyJSON:
		switch m.Body.JSONMode {
		case "", JSONExact, JSONContains:
		default:
			return &ValidationError{Field: "httpRequest.body.json.mode", Message: fmt.Sprintf("unknown mode: %s", m.Body.JSONMode)}
		}
	case BodyXPath:
		if _, err := etree.CompilePath(m.Body.XPathExpr); err != nil {
			return &ValidationError{Field: "httpRequest.body.xpath", Message: fmt.Sprintf("invalid XPath expression: %s", err.Error())}
		}
	case BodyString:
		// Plain string bodies have no further shape to validate.
	}
	return nil
}

func validateCannedResponse(r *CannedResponse) error {
	if r.StatusCode != 0 && (r.StatusCode < 100 || r.StatusCode > 599) {
		return &ValidationError{Field: "httpResponse.statusCode", Message: fmt.Sprintf("statusCode must be between 100-599, got %d", r.StatusCode)}
	}
	return nil
}

func validateForward(f *Forward) error {
	if f.Host == "" {
		return &ValidationError{Field: "httpForward.host", Message: "host is required"}
	}
	switch f.Scheme {
	case "", SchemeHTTP, SchemeHTTPS:
	default:
		return &ValidationError{Field: "httpForward.scheme", Message: fmt.Sprintf("scheme must be HTTP or HTTPS, got %s", f.Scheme)}
	}
	if f.Port < 0 || f.Port > 65535 {
		return &ValidationError{Field: "httpForward.port", Message: "port must be between 0 and 65535"}
	}
	return nil
}
