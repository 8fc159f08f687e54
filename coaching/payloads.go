package coaching

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MinStepMinutes = 5
	MaxStepMinutes = 30
)

// Payload is the schema-valid body returned for one kind.
type Payload interface {
	Kind() Kind
	Validate() error
}

type WeeklyMountain struct {
	Name         string `json:"name"`
	Note         string `json:"note"`
	WeeklyTarget string `json:"weeklyTarget"`
}

func (WeeklyMountain) Kind() Kind { return KindWeeklyMountain }

func (w WeeklyMountain) Validate() error {
	return nonEmpty(
		field{"name", w.Name},
		field{"note", w.Note},
		field{"weeklyTarget", w.WeeklyTarget},
	)
}

type OnboardingPlan struct {
	BigGoal        string         `json:"bigGoal"`
	DailyStep      string         `json:"dailyStep"`
	WeeklyMountain WeeklyMountain `json:"weeklyMountain"`
}

func (OnboardingPlan) Kind() Kind { return KindOnboarding }

// UnmarshalJSON also accepts dailyStep written as a task object; the plan
// keeps its title, or its description when the title is blank.
func (p *OnboardingPlan) UnmarshalJSON(b []byte) error {
	var raw struct {
		BigGoal        string          `json:"bigGoal"`
		DailyStep      json.RawMessage `json:"dailyStep"`
		WeeklyMountain WeeklyMountain  `json:"weeklyMountain"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	step, err := flattenStep(raw.DailyStep)
	if err != nil {
		return fmt.Errorf("dailyStep: %w", err)
	}

	*p = OnboardingPlan{BigGoal: raw.BigGoal, DailyStep: step, WeeklyMountain: raw.WeeklyMountain}
	return nil
}

func flattenStep(b json.RawMessage) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "", nil
	}
	if b[0] != '{' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}

	var task struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(b, &task); err != nil {
		return "", err
	}
	if strings.TrimSpace(task.Title) != "" {
		return task.Title, nil
	}
	return task.Description, nil
}

func (p OnboardingPlan) Validate() error {
	if err := nonEmpty(field{"bigGoal", p.BigGoal}, field{"dailyStep", p.DailyStep}); err != nil {
		return err
	}
	if err := p.WeeklyMountain.Validate(); err != nil {
		return fmt.Errorf("weeklyMountain: %w", err)
	}
	return nil
}

type DailyStep struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// UnmarshalJSON accepts whole-number minutes written as 15, 15.0 or "15".
func (s *DailyStep) UnmarshalJSON(b []byte) error {
	var raw struct {
		Title            string      `json:"title"`
		Description      string      `json:"description"`
		EstimatedMinutes json.Number `json:"estimatedMinutes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.EstimatedMinutes == "" {
		return errors.New("estimatedMinutes is required")
	}
	f, err := raw.EstimatedMinutes.Float64()
	if err != nil {
		return fmt.Errorf("estimatedMinutes: %w", err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return fmt.Errorf("estimatedMinutes must be a whole number, got %s", raw.EstimatedMinutes)
	}
	if math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("estimatedMinutes out of range, got %s", raw.EstimatedMinutes)
	}

	*s = DailyStep{
		Title:            raw.Title,
		Description:      raw.Description,
		EstimatedMinutes: int(f),
	}
	return nil
}

func (s DailyStep) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("title is required")
	}
	if s.EstimatedMinutes < MinStepMinutes || s.EstimatedMinutes > MaxStepMinutes {
		return fmt.Errorf("estimatedMinutes %d outside [%d, %d]", s.EstimatedMinutes, MinStepMinutes, MaxStepMinutes)
	}
	return nil
}

type DailyStepSet struct {
	Tasks     []DailyStep `json:"tasks"`
	CoachNote string      `json:"coachNote"`
}

func (DailyStepSet) Kind() Kind { return KindDailySteps }

// Validate rejects out-of-range minutes rather than clamping them.
func (s DailyStepSet) Validate() error {
	if len(s.Tasks) == 0 {
		return errors.New("tasks must not be empty")
	}
	for i, task := range s.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	return nil
}

func decodePayload(kind Kind, data []byte) (Payload, error) {
	switch kind {
	case KindOnboarding:
		var p OnboardingPlan
		err := json.Unmarshal(data, &p)
		return p, err
	case KindWeeklyMountain:
		var p WeeklyMountain
		err := json.Unmarshal(data, &p)
		return p, err
	case KindDailySteps:
		var p DailyStepSet
		err := json.Unmarshal(data, &p)
		return p, err
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func nonEmpty(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s must be a non-empty string", f.name)
		}
	}
	return nil
}
