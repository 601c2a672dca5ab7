package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Status string

const (
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusExecuting, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

const TypeSerial = "serial_command"

// ID is the backend's opaque command identifier. The backend emits integers,
// but any JSON scalar is accepted and kept in its textual form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("command id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Params holds command parameters. Laravel serialises an empty array as [],
// so that and null both decode to an empty set.
type Params map[string]any

func (p *Params) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte("[]")) {
		*p = Params{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	m := map[string]any{}
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("command params: %w", err)
	}
	*p = m
	return nil
}

// String returns the parameter as text, or "" when it is absent or not a scalar.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// Float returns a numeric parameter; strings holding numbers are accepted.
func (p Params) Float(key string) (float64, bool) {
	s := strings.TrimSpace(p.String(key))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

type Command struct {
	ID     ID     `json:"id"`
	Type   string `json:"type"`
	Params Params `json:"params"`
}

// Outcome is the terminal result of handling one command.
type Outcome struct {
	Status  Status
	Message string
}

func Completed(msg string) Outcome { return Outcome{Status: StatusCompleted, Message: msg} }
func Failed(msg string) Outcome    { return Outcome{Status: StatusFailed, Message: msg} }

// Summary counts what happened to one batch.
type Summary struct {
	Total     int
	Completed int
	Failed    int
	Skipped   int
}

func (s *Summary) add(o *Outcome) {
	s.Total++
	switch {
	case o == nil:
		s.Skipped++
	case o.Status == StatusCompleted:
		s.Completed++
	default:
		s.Failed++
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d completed=%d failed=%d skipped=%d", s.Total, s.Completed, s.Failed, s.Skipped)
}
