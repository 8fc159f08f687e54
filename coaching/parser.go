package coaching

import (
	"encoding/json"
	"strings"
)

// Deprecated field spellings produced by older prompts and clients.
var fieldAliases = map[string]string{
	"big_goal":          "bigGoal",
	"daily_step":        "dailyStep",
	"weekly_mountain":   "weeklyMountain",
	"weekly_target":     "weeklyTarget",
	"coach_note":        "coachNote",
	"estimated_minutes": "estimatedMinutes",
	"vague_goal":        "vagueGoal",
	"current_progress":  "currentProgress",
	"time_limit":        "timeLimit",
	"steps":             "tasks",
}

var markerFields = map[Kind][]string{
	KindOnboarding:     {"bigGoal", "weeklyMountain", "dailyStep"},
	KindWeeklyMountain: {"name", "note", "weeklyTarget"},
	KindDailySteps:     {"tasks"},
}

// Parse turns raw model output into the payload for kind. It checks, in
// order: the text is a JSON object, the kind's marker fields are present,
// and the typed payload validates.
func Parse(raw string, kind Kind) (Payload, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, &ParseError{Kind: kind, Reason: "empty content"}
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Kind: kind, Reason: "content is not valid JSON", Cause: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &ParseError{Kind: kind, Reason: "top-level JSON value is not an object"}
	}
	canonicalize(obj)

	markers, ok := markerFields[kind]
	if !ok {
		return nil, &ParseError{Kind: kind, Reason: "unknown kind"}
	}
	for _, m := range markers {
		if _, present := obj[m]; !present {
			return nil, &ParseError{Kind: kind, Reason: "missing field " + m}
		}
	}
	if kind == KindDailySteps {
		if _, isArray := obj["tasks"].([]any); !isArray {
			return nil, &ParseError{Kind: kind, Reason: "tasks is not an array"}
		}
	}

	normalized, err := json.Marshal(obj)
	if err != nil {
		return nil, &ParseError{Kind: kind, Reason: "re-encode", Cause: err}
	}
	payload, err := decodePayload(kind, normalized)
	if err != nil {
		return nil, &ParseError{Kind: kind, Reason: "unexpected field type", Cause: err}
	}
	if err := payload.Validate(); err != nil {
		return nil, &ParseError{Kind: kind, Reason: "invalid payload", Cause: err}
	}

	return payload, nil
}

// canonicalize renames deprecated keys in place, at every depth. A canonical
// key that is already present wins over its alias.
func canonicalize(v any) {
	switch node := v.(type) {
	case map[string]any:
		for alias, canonical := range fieldAliases {
			val, ok := node[alias]
			if !ok {
				continue
			}
			if _, exists := node[canonical]; !exists {
				node[canonical] = val
			}
			delete(node, alias)
		}
		for _, child := range node {
			canonicalize(child)
		}
	case []any:
		for _, child := range node {
			canonicalize(child)
		}
	}
}

// stripCodeFence removes a surrounding ``` or ```json fence some models add
// even in JSON mode.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
