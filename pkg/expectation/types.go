// Package expectation defines the data model for expectations: the rules
// that associate a request matcher with a canned response or forward
// action. Types here are pure data — matching logic lives in
// internal/matching, admission validation in this package's validate.go.
package expectation

import (
	"encoding/json"
	"fmt"
)

// MatchType controls how unspecified fields on the incoming request are
// treated.
type MatchType string

const (
	// Strict requires unspecified field sets on the request to be empty,
	// modulo the standard-header whitelist.
	Strict MatchType = "STRICT"
	// OnlyMatchingFields examines only the fields named by the matcher.
	OnlyMatchingFields MatchType = "ONLY_MATCHING_FIELDS"
)

// Scheme is the forward target's scheme.
type Scheme string

const (
	SchemeHTTP  Scheme = "HTTP"
	SchemeHTTPS Scheme = "HTTPS"
)

// StringMatch is a matcher value that may be written on the wire as a bare
// string or as an object carrying a "not" inversion flag.
type StringMatch struct {
	Value string
	Not   bool
}

// UnmarshalJSON accepts either a JSON string or {"value":"...","not":bool}.
func (m *StringMatch) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Value = s
		m.Not = false
		return nil
	}

	var obj struct {
		Value string `json:"value"`
		Not   bool   `json:"not"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("matcher value must be a string or {value, not}: %w", err)
	}
	m.Value = obj.Value
	m.Not = obj.Not
	return nil
}

// MarshalJSON emits the bare string form when not inverted, the object form
// otherwise.
func (m StringMatch) MarshalJSON() ([]byte, error) {
	if !m.Not {
		return json.Marshal(m.Value)
	}
	return json.Marshal(struct {
		Value string `json:"value"`
		Not   bool   `json:"not"`
	}{m.Value, m.Not})
}

// MultiValueMatch is a name -> list-of-values mapping used for headers and
// query parameters, with an optional whole-block "not" inversion.
//
// On the wire it is either a plain {"name": "value"} / {"name": ["v1","v2"]}
// object, or the wrapped form {"values": {...}, "not": true}.
type MultiValueMatch struct {
	Values map[string][]string
	Not    bool
}

// UnmarshalJSON implements the dual plain-map / wrapped-object forms.
func (m *MultiValueMatch) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Values map[string]json.RawMessage `json:"values"`
		Not    bool                       `json:"not"`
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("multi-value matcher must be an object: %w", err)
	}
	_, hasValues := probe["values"]
	_, hasNot := probe["not"]
	raw := probe
	not := false
	if hasValues || hasNot {
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		raw = wrapped.Values
		not = wrapped.Not
	}

	values := make(map[string][]string, len(raw))
	for name, v := range raw {
		list, err := decodeValueOrList(v)
		if err != nil {
			return fmt.Errorf("value for %q: %w", name, err)
		}
		values[name] = list
	}
	m.Values = values
	m.Not = not
	return nil
}

func decodeValueOrList(data json.RawMessage) ([]string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	return nil, fmt.Errorf("must be a string or array of strings")
}

// MarshalJSON emits the plain-map form when not inverted.
func (m MultiValueMatch) MarshalJSON() ([]byte, error) {
	if !m.Not {
		return json.Marshal(m.Values)
	}
	return json.Marshal(struct {
		Values map[string][]string `json:"values"`
		Not    bool                 `json:"not"`
	}{m.Values, m.Not})
}

// BodyKind names which variant of BodyMatcher is populated.
type BodyKind string

const (
	BodyString   BodyKind = "string"
	BodyJSON     BodyKind = "json"
	BodyJSONPath BodyKind = "jsonpath"
	BodyXPath    BodyKind = "xpath"
	BodyRegex    BodyKind = "regex"
)

// JSONMatchMode controls BodyMatcher's json variant comparison.
type JSONMatchMode string

const (
	JSONExact    JSONMatchMode = "exact"
	JSONContains JSONMatchMode = "contains"
)

// BodyMatcher is the tagged union over the five body-matching variants.
// Exactly one of the Kind-named fields is meaningful, per Kind.
type BodyMatcher struct {
	Kind BodyKind
	Not  bool

	StringValue string // BodyString

	JSONValue any           // BodyJSON
	JSONMode  JSONMatchMode // BodyJSON, default JSONExact

	JSONPathExpr string // BodyJSONPath
	XPathExpr    string // BodyXPath
	RegexPattern string // BodyRegex
}

// UnmarshalJSON reads the body matcher from its wire form, where exactly one
// of "string", "json", "jsonpath", "xpath", "regex" is present.
func (b *BodyMatcher) UnmarshalJSON(data []byte) error {
	var probe struct {
		String   *string         `json:"string"`
		JSON     json.RawMessage `json:"json"`
		JSONPath *string         `json:"jsonpath"`
		XPath    *string         `json:"xpath"`
		Regex    *string         `json:"regex"`
		Not      bool            `json:"not"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("body matcher: %w", err)
	}
	b.Not = probe.Not

	count := 0
	if probe.String != nil {
		count++
	}
	if len(probe.JSON) > 0 {
		count++
	}
	if probe.JSONPath != nil {
		count++
	}
	if probe.XPath != nil {
		count++
	}
	if probe.Regex != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("body matcher must set exactly one of string, json, jsonpath, xpath, regex, got %d", count)
	}

	switch {
	case probe.String != nil:
		b.Kind = BodyString
		b.StringValue = *probe.String
	case len(probe.JSON) > 0:
		b.Kind = BodyJSON
		var jsonBody struct {
			Value any           `json:"value"`
			Mode  JSONMatchMode `json:"mode"`
		}
		if err := json.Unmarshal(probe.JSON, &jsonBody); err != nil {
			return fmt.Errorf("body.json: %w", err)
		}
		b.JSONValue = jsonBody.Value
		b.JSONMode = jsonBody.Mode
		if b.JSONMode == "" {
			b.JSONMode = JSONExact
		}
	case probe.JSONPath != nil:
		b.Kind = BodyJSONPath
		b.JSONPathExpr = *probe.JSONPath
	case probe.XPath != nil:
		b.Kind = BodyXPath
		b.XPathExpr = *probe.XPath
	case probe.Regex != nil:
		b.Kind = BodyRegex
		b.RegexPattern = *probe.Regex
	}
	return nil
}

// MarshalJSON emits the single populated variant.
func (b BodyMatcher) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if b.Not {
		out["not"] = true
	}
	switch b.Kind {
	case BodyString:
		out["string"] = b.StringValue
	case BodyJSON:
		out["json"] = map[string]any{"value": b.JSONValue, "mode": b.JSONMode}
	case BodyJSONPath:
		out["jsonpath"] = b.JSONPathExpr
	case BodyXPath:
		out["xpath"] = b.XPathExpr
	case BodyRegex:
		out["regex"] = b.RegexPattern
	default:
		return []byte("null"), nil
	}
	return json.Marshal(out)
}

// RequestMatcher is the predicate portion of an expectation.
type RequestMatcher struct {
	Method      *StringMatch     `json:"method,omitempty"`
	Path        *StringMatch     `json:"path,omitempty"`
	QueryParams *MultiValueMatch `json:"queryParams,omitempty"`
	Headers     *MultiValueMatch `json:"headers,omitempty"`
	Body        *BodyMatcher     `json:"body,omitempty"`
	MatchType   MatchType        `json:"matchType,omitempty"`
}

// TimeUnit names the unit a Delay.Value is expressed in.
type TimeUnit string

const (
	Milliseconds TimeUnit = "MILLISECONDS"
	Seconds      TimeUnit = "SECONDS"
	Minutes      TimeUnit = "MINUTES"
)

// CannedResponse is a pre-declared reply for a matched expectation.
type CannedResponse struct {
	StatusCode int                 `json:"statusCode,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       ResponseBody        `json:"body,omitempty"`
	Delay      *Delay              `json:"delay,omitempty"`
}

// Forward proxies the request to a named upstream.
type Forward struct {
	Host   string `json:"host"`
	Port   int    `json:"port,omitempty"`
	Scheme Scheme `json:"scheme,omitempty"`
	Delay  *Delay `json:"delay,omitempty"`
}

// Expectation is the central entity: a request matcher paired with exactly
// one action.
type Expectation struct {
	ID             string          `json:"id,omitempty"`
	Priority       int             `json:"priority"`
	RequestMatcher RequestMatcher  `json:"httpRequest"`
	CannedResponse *CannedResponse `json:"httpResponse,omitempty"`
	Forward        *Forward        `json:"httpForward,omitempty"`
}

// HasAction reports whether exactly one action kind is set.
func (e *Expectation) HasAction() bool {
	return (e.CannedResponse != nil) != (e.Forward != nil)
}
