package expectation

import "encoding/json"

// ResponseBody holds a canned response body exactly as declared: either a
// plain string, or a JSON object/array/number/boolean that is serialised to
// JSON bytes at admission time (spec: "if body is an object, serialise as
// JSON; if string or bytes, pass through").
type ResponseBody struct {
	// Raw is the exact bytes to write to the client.
	Raw []byte
	// IsJSON records whether the declared body was a JSON structure (object,
	// array, number or boolean) rather than a bare string — used by the
	// executor to default Content-Type when the expectation doesn't set one.
	IsJSON bool
}

// UnmarshalJSON accepts a string, object, array, number, boolean, or null.
func (b *ResponseBody) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		b.Raw = nil
		b.IsJSON = false
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Raw = []byte(s)
		b.IsJSON = false
		return nil
	}

	b.Raw = append([]byte(nil), data...)
	b.IsJSON = true
	return nil
}

// MarshalJSON re-emits the body: raw JSON if IsJSON, a quoted string
// otherwise.
func (b ResponseBody) MarshalJSON() ([]byte, error) {
	if len(b.Raw) == 0 {
		return []byte(`""`), nil
	}
	if b.IsJSON {
		return b.Raw, nil
	}
	return json.Marshal(string(b.Raw))
}
