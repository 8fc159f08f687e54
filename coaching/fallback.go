package coaching

// Fallback returns the static payload served when the model could not
// produce a valid one. A fresh value is built on every call.
func Fallback(kind Kind) Payload {
	switch kind {
	case KindOnboarding:
		return OnboardingPlan{
			BigGoal:   "Make steady, measurable progress on your goal before your time limit.",
			DailyStep: "Spend 10 focused minutes on the very first step toward your goal.",
			WeeklyMountain: WeeklyMountain{
				Name:         "Build Momentum",
				Note:         "Small steps every day add up. Start light and keep showing up.",
				WeeklyTarget: "Complete a short focused session on 5 of the next 7 days.",
			},
		}
	case KindWeeklyMountain:
		return WeeklyMountain{
			Name:         "Build Momentum",
			Note:         "Small steps every day add up. Start light and keep showing up.",
			WeeklyTarget: "Complete a short focused session on 5 of the next 7 days.",
		}
	case KindDailySteps:
		return DailyStepSet{
			Tasks: []DailyStep{
				{
					Title:            "Warm-up Push",
					Description:      "Do a tiny 5-minute action toward your weekly mountain.",
					EstimatedMinutes: 5,
				},
				{
					Title:            "Main Step",
					Description:      "A meaningful action that moves your big goal forward.",
					EstimatedMinutes: 15,
				},
			},
			CoachNote: "Fallback activated, don't stop now!",
		}
	}
	return nil
}
