package coaching

import (
	"context"
	"errors"
	"sync"
)

type reply struct {
	raw string
	err error
}

// scriptedCompleter answers calls from a fixed script and records prompts.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []reply
	prompts []Prompt
	block   bool
}

func newScripted(replies ...reply) *scriptedCompleter {
	return &scriptedCompleter{replies: replies}
}

func (s *scriptedCompleter) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	s.mu.Lock()
	idx := len(s.prompts)
	s.prompts = append(s.prompts, Prompt{System: systemPrompt, User: userPrompt})
	block := s.block
	s.mu.Unlock()

	if block || ctx.Err() != nil {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if idx >= len(s.replies) {
		return "", errors.New("unexpected call")
	}
	return s.replies[idx].raw, s.replies[idx].err
}

func (s *scriptedCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type recordingObserver struct {
	mu        sync.Mutex
	transport []error
	parse     []error
	fallbacks int
}

func (o *recordingObserver) TransportFailed(_ context.Context, _ Kind, _ int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transport = append(o.transport, err)
}

func (o *recordingObserver) ParseFailed(_ context.Context, _ Kind, _ int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parse = append(o.parse, err)
}

func (o *recordingObserver) FallbackActivated(context.Context, Kind, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks++
}

type panickingCompleter struct{}

func (panickingCompleter) Complete(context.Context, string, string) (string, error) {
	panic("upstream SDK bug")
}

const (
	validMountainJSON   = `{"name":"Base Building","note":"Easy miles.","weeklyTarget":"Three 20-minute runs"}`
	validDailyStepsJSON = `{"tasks":[{"title":"Stretch","description":"Loosen up","estimatedMinutes":10},{"title":"Jog","description":"Easy pace","estimatedMinutes":20}],"coachNote":"You got this"}`
	validOnboardingJSON = `{"bigGoal":"Run 5k without stopping in 3 months","dailyStep":"Walk 15 minutes","weeklyMountain":{"name":"First Steps","note":"Start slow.","weeklyTarget":"Walk 4 times this week"}}`
)
