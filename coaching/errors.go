package coaching

import (
	"fmt"
	"strings"
)

// InvalidContextError is the caller's fault: the request context lacks a
// required field. It is never retried and never reaches the upstream model.
type InvalidContextError struct {
	Kind    Kind
	Missing []string
	Reason  string
}

var requiredMessages = map[Kind]string{
	KindOnboarding:     "vagueGoal, currentProgress, and timeLimit required",
	KindWeeklyMountain: "bigGoal required",
	KindDailySteps:     "bigGoal and weeklyMountain required",
}

func (e *InvalidContextError) Error() string {
	msg, ok := requiredMessages[e.Kind]
	if !ok {
		msg = "invalid request context"
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

// ParseError means the model answered but the content is not an acceptable
// payload for the kind.
type ParseError struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse %s response: %s", e.Kind, e.Reason)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
