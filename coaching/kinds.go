package coaching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind names one of the three generation endpoints. Each kind owns a request
// context type and a payload type.
type Kind string

const (
	KindOnboarding     Kind = "onboarding"
	KindWeeklyMountain Kind = "weekly-mountain"
	KindDailySteps     Kind = "daily-steps"
)

var Kinds = []Kind{KindOnboarding, KindWeeklyMountain, KindDailySteps}

func (k Kind) Valid() bool {
	switch k {
	case KindOnboarding, KindWeeklyMountain, KindDailySteps:
		return true
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// Request is the typed input of one generation.
type Request interface {
	Kind() Kind
	// Validate returns an *InvalidContextError when a required field is blank.
	Validate() error
}

// GoalContext is the raw onboarding input.
type GoalContext struct {
	VagueGoal       string `json:"vagueGoal"`
	CurrentProgress string `json:"currentProgress"`
	TimeLimit       string `json:"timeLimit"`
}

func (GoalContext) Kind() Kind { return KindOnboarding }

func (c GoalContext) Validate() error {
	return requireFields(KindOnboarding,
		field{"vagueGoal", c.VagueGoal},
		field{"currentProgress", c.CurrentProgress},
		field{"timeLimit", c.TimeLimit},
	)
}

type WeeklyMountainContext struct {
	BigGoal string `json:"bigGoal"`
}

func (WeeklyMountainContext) Kind() Kind { return KindWeeklyMountain }

func (c WeeklyMountainContext) Validate() error {
	return requireFields(KindWeeklyMountain, field{"bigGoal", c.BigGoal})
}

type DailyStepsContext struct {
	BigGoal        string      `json:"bigGoal"`
	WeeklyMountain MountainRef `json:"weeklyMountain"`
}

func (DailyStepsContext) Kind() Kind { return KindDailySteps }

func (c DailyStepsContext) Validate() error {
	return requireFields(KindDailySteps,
		field{"bigGoal", c.BigGoal},
		field{"weeklyMountain", c.WeeklyMountain.String()},
	)
}

// MountainRef is the weekly mountain as the client sends it back: the object
// produced earlier, a free-form string, or any other non-empty JSON value,
// which is passed to the prompt as compact JSON.
type MountainRef struct {
	Text     string
	Mountain *WeeklyMountain
	Raw      json.RawMessage
}

func (m *MountainRef) UnmarshalJSON(b []byte) error {
	*m = MountainRef{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || isEmptyJSON(b) {
		return nil
	}

	if b[0] == '"' {
		return json.Unmarshal(b, &m.Text)
	}

	if b[0] == '{' {
		var wm WeeklyMountain
		if err := json.Unmarshal(b, &wm); err == nil && renderMountain(wm) != "" {
			m.Mountain = &wm
			return nil
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, b); err != nil {
		return err
	}
	m.Raw = json.RawMessage(compact.Bytes())
	return nil
}

// isEmptyJSON reports values a client uses to mean "no mountain".
func isEmptyJSON(b []byte) bool {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func (m MountainRef) MarshalJSON() ([]byte, error) {
	switch {
	case m.Mountain != nil:
		return json.Marshal(m.Mountain)
	case len(m.Raw) > 0:
		return m.Raw, nil
	}
	return json.Marshal(m.Text)
}

// String renders the mountain for prompts. It is empty when nothing usable
// was provided.
func (m MountainRef) String() string {
	switch {
	case m.Mountain != nil:
		return renderMountain(*m.Mountain)
	case len(m.Raw) > 0:
		return string(m.Raw)
	}
	return strings.TrimSpace(m.Text)
}

func renderMountain(wm WeeklyMountain) string {
	var parts []string
	if name := strings.TrimSpace(wm.Name); name != "" {
		parts = append(parts, name)
	}
	if target := strings.TrimSpace(wm.WeeklyTarget); target != "" {
		parts = append(parts, "weekly target: "+target)
	}
	if note := strings.TrimSpace(wm.Note); note != "" {
		parts = append(parts, "note: "+note)
	}
	return strings.Join(parts, "; ")
}

// DecodeRequest builds the request context for kind from a request body.
// Bodies that are empty or not a JSON object decode as an empty context, so
// they fail validation instead of erroring here.
func DecodeRequest(kind Kind, body []byte) (Request, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		doc = map[string]any{}
	}
	canonicalize(doc)

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, &InvalidContextError{Kind: kind, Reason: err.Error()}
	}

	var req Request
	switch kind {
	case KindOnboarding:
		var c GoalContext
		err = json.Unmarshal(normalized, &c)
		req = c
	case KindWeeklyMountain:
		var c WeeklyMountainContext
		err = json.Unmarshal(normalized, &c)
		req = c
	case KindDailySteps:
		var c DailyStepsContext
		err = json.Unmarshal(normalized, &c)
		req = c
	default:
		return nil, &InvalidContextError{Kind: kind, Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
	if err != nil {
		return nil, &InvalidContextError{Kind: kind, Reason: err.Error()}
	}

	return req, nil
}

type field struct {
	name  string
	value string
}

func requireFields(kind Kind, fields ...field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &InvalidContextError{Kind: kind, Missing: missing}
	}
	return nil
}
