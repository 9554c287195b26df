package engine

import "math"

var milestonesKm = []int{1, 5, 10, 21, 42}

type achievementRule struct {
	achievement Achievement
	reached     func(distanceKm float64, timeSeconds uint64, pace float64) bool
}

var achievementRules = []achievementRule{
	{
		achievement: Achievement{Kind: KindDistance, Value: 5, Title: "5 km milestone", Description: "Completed a 5 km run"},
		reached:     func(d float64, _ uint64, _ float64) bool { return d >= 5 },
	},
	{
		achievement: Achievement{Kind: KindDistance, Value: 10, Title: "10 km milestone", Description: "Completed a 10 km run"},
		reached:     func(d float64, _ uint64, _ float64) bool { return d >= 10 },
	},
	{
		achievement: Achievement{Kind: KindTime, Value: 30, Title: "30-minute endurance", Description: "Kept running for 30 minutes"},
		reached:     func(_ float64, t uint64, _ float64) bool { return t >= 1800 },
	},
	{
		achievement: Achievement{Kind: KindTime, Value: 60, Title: "60-minute endurance", Description: "Kept running for 60 minutes"},
		reached:     func(_ float64, t uint64, _ float64) bool { return t >= 3600 },
	},
	{
		achievement: Achievement{Kind: KindPace, Value: 5, Title: "sub-5 pace", Description: "Average pace under 5 min/km"},
		reached:     func(_ float64, _ uint64, p float64) bool { return p <= 5 },
	},
	{
		achievement: Achievement{Kind: KindPace, Value: 4, Title: "sub-4 pace", Description: "Average pace under 4 min/km"},
		reached:     func(_ float64, _ uint64, p float64) bool { return p <= 4 },
	},
}

// Evaluate returns every achievement the totals qualify for, in table order.
func Evaluate(distanceKm float64, timeSeconds uint64, paceMinPerKm float64) []Achievement {
	achievements := []Achievement{}
	for _, rule := range achievementRules {
		if rule.reached(distanceKm, timeSeconds, paceMinPerKm) {
			achievements = append(achievements, rule.achievement)
		}
	}
	return achievements
}

// NextMilestone returns the first milestone beyond the whole kilometres run,
// or the largest one once all are passed, with the fraction covered and the
// whole kilometres still missing.
func NextMilestone(distanceKm float64) (milestone int, progress float64, remainingKm int) {
	whole := int(math.Floor(distanceKm))
	milestone = milestonesKm[len(milestonesKm)-1]
	for _, m := range milestonesKm {
		if m > whole {
			milestone = m
			break
		}
	}
	progress = distanceKm / float64(milestone)
	remainingKm = max(milestone-whole, 0)
	return milestone, progress, remainingKm
}

func Summarize(m Metrics) Summary {
	milestone, progress, remaining := NextMilestone(m.TotalDistanceKm)
	return Summary{
		DistanceKm:            m.TotalDistanceKm,
		TimeSeconds:           m.TotalTimeSeconds,
		PaceMinPerKm:          m.CurrentPaceMinPerKm,
		Achievements:          Evaluate(m.TotalDistanceKm, m.TotalTimeSeconds, m.CurrentPaceMinPerKm),
		NextMilestone:         milestone,
		NextMilestoneProgress: progress,
		RemainingKm:           remaining,
	}
}
