package expectation

import (
	"encoding/json"
	"time"
)

// Delay is the wait applied before a canned response or forward is issued.
// It accepts either a bare integer (milliseconds) or an object naming a
// time unit, per spec §6.
type Delay struct {
	Value    int64
	TimeUnit TimeUnit
}

// UnmarshalJSON accepts a bare integer or {"timeUnit": "...", "value": N}.
func (d *Delay) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		d.Value = n
		d.TimeUnit = Milliseconds
		return nil
	}

	var obj struct {
		TimeUnit TimeUnit `json:"timeUnit"`
		Value    int64    `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	d.Value = obj.Value
	d.TimeUnit = obj.TimeUnit
	return nil
}

// MarshalJSON emits the object form.
func (d Delay) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TimeUnit TimeUnit `json:"timeUnit"`
		Value    int64    `json:"value"`
	}{d.TimeUnit, d.Value})
}

// Duration converts the delay to a time.Duration. Units other than
// SECONDS/MINUTES are treated as milliseconds, per spec §6.
func (d *Delay) Duration() time.Duration {
	if d == nil {
		return 0
	}
	switch d.TimeUnit {
	case Seconds:
		return time.Duration(d.Value) * time.Second
	case Minutes:
		return time.Duration(d.Value) * time.Minute
	default:
		return time.Duration(d.Value) * time.Millisecond
	}
}
