package logistics

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/Additional-Code/logistics/internal/dto"
	"github.com/Additional-Code/logistics/pkg/errorbank"
)

// payload reads typed fields out of a decoded JSON object and collects one
// problem per bad field, so a request reports every mistake at once.
type payload struct {
	fields   map[string]json.RawMessage
	problems map[string]any
}

func newPayload(fields map[string]json.RawMessage) *payload {
	return &payload{fields: fields, problems: map[string]any{}}
}

// lookup returns the raw value of name, or false when absent or null.
func (p *payload) lookup(name string) (json.RawMessage, bool) {
	raw, ok := p.fields[name]
	if !ok {
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	return trimmed, true
}

func (p *payload) requiredString(name string) string {
	raw, ok := p.lookup(name)
	if !ok {
		p.problems[name] = "is required"
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		p.problems[name] = "must be a string"
		return ""
	}
	if strings.TrimSpace(v) == "" {
		p.problems[name] = "must not be empty"
	}
	return v
}

func (p *payload) optionalString(name string) *string {
	raw, ok := p.lookup(name)
	if !ok {
		return nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		p.problems[name] = "must be a string"
		return nil
	}
	return &v
}

func (p *payload) optionalInt(name string) *int64 {
	raw, ok := p.lookup(name)
	if !ok {
		return nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		p.problems[name] = "must be an integer"
		return nil
	}
	return &v
}

// optionalDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping only the
// calendar date. An empty string counts as absent.
func (p *payload) optionalDate(name string) *time.Time {
	raw, ok := p.lookup(name)
	if !ok {
		return nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		p.problems[name] = "must be a date string"
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if d, err := time.Parse(dto.DateLayout, v); err == nil {
		return &d
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		p.problems[name] = "must be a YYYY-MM-DD date"
		return nil
	}
	d := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// err returns a bad request listing every problem, or nil.
func (p *payload) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return errorbank.BadRequest("invalid payload", errorbank.WithDetails(p.problems))
}
