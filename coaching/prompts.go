package coaching

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

type Prompt struct {
	System string
	User   string
}

const coachPersona = "You are SweetSteps, a warm but practical goal coach who turns big ambitions into tiny, doable steps.\n"

const strictFooter = `
- Every string value must be non-empty.
- NO extra fields. NO markdown. NO text outside the JSON object.`

const onboardingSystemPrompt = coachPersona + `Generate onboarding results from the user's vague goal.
Return STRICT JSON with EXACTLY this shape:
{
  "bigGoal": string,
  "dailyStep": string,
  "weeklyMountain": { "name": string, "note": string, "weeklyTarget": string }
}
Rules:
- bigGoal is one concrete, measurable sentence achievable within the time limit.
- dailyStep is one tiny action for today that takes between 5 and 30 minutes.
- weeklyMountain is this week's focus: a short name, an encouraging note, and a measurable weeklyTarget.
- Take the user's current progress into account; never repeat what is already done.` + strictFooter

const weeklyMountainSystemPrompt = coachPersona + `Generate this week's mountain for the user's big goal.
Return STRICT JSON with EXACTLY this shape:
{ "name": string, "note": string, "weeklyTarget": string }
Rules:
- name is a short, motivating title (max 6 words).
- note is one or two encouraging sentences.
- weeklyTarget is a single measurable outcome reachable in 7 days.` + strictFooter

const dailyStepsSystemPrompt = coachPersona + `Generate today's Daily SweetSteps.
Return STRICT JSON with EXACTLY this shape:
{
  "tasks": [
    { "title": string, "description": string, "estimatedMinutes": number }
  ],
  "coachNote": string
}
Rules:
- Return between 1 and 5 tasks.
- estimatedMinutes MUST be a whole number between 5 and 30.
- NEVER exceed 30 minutes.
- NEVER return hours.
- Prefer 10, 15, 20, 25, or 30-minute tasks.
- Tasks should be practical tiny steps, not giant goals.
- NO nested objects inside tasks.` + strictFooter

// BuildPrompt renders the prompts for req. Only the fields of req's own
// context type are interpolated.
func BuildPrompt(req Request) Prompt {
	var b strings.Builder

	switch c := req.(type) {
	case GoalContext:
		writeLine(&b, "Vague Goal", c.VagueGoal)
		writeLine(&b, "Current Progress", c.CurrentProgress)
		writeLine(&b, "Time Limit", c.TimeLimit)
		return Prompt{System: onboardingSystemPrompt, User: b.String()}
	case WeeklyMountainContext:
		writeLine(&b, "Big Goal", c.BigGoal)
		return Prompt{System: weeklyMountainSystemPrompt, User: b.String()}
	case DailyStepsContext:
		writeLine(&b, "Big Goal", c.BigGoal)
		writeLine(&b, "Weekly Mountain", c.WeeklyMountain.String())
		return Prompt{System: dailyStepsSystemPrompt, User: b.String()}
	}

	return Prompt{}
}

// SystemPrompt returns the fixed system prompt for kind.
func SystemPrompt(kind Kind) string {
	switch kind {
	case KindOnboarding:
		return onboardingSystemPrompt
	case KindWeeklyMountain:
		return weeklyMountainSystemPrompt
	case KindDailySteps:
		return dailyStepsSystemPrompt
	}
	return ""
}

func writeLine(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(cleanInput(value))
	b.WriteString("\n")
}

// cleanInput trims, NFC-normalises and flattens newlines so user text
// cannot start a fake prompt line of its own.
func cleanInput(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
