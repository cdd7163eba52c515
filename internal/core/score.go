package core

import "math"

// GoalsSummary counts a household's goals by status.
type GoalsSummary struct {
	Total     int `json:"total"`
	OnTrack   int `json:"onTrack"`
	Ahead     int `json:"ahead"`
	Completed int `json:"completed"`
	Behind    int `json:"behind"`
}

// HealthInputs are the externally supplied figures the scorer combines with
// the asset breakdown. Income, expenses and the goals summary come from the
// household's monthly bookkeeping, not from the asset ledger.
type HealthInputs struct {
	SavingsRate float64            `json:"savingsRate"`
	Goals       GoalsSummary       `json:"goals"`
	Breakdown   map[string]float64 `json:"breakdown"`
	Income      float64            `json:"income"`
	Expenses    float64            `json:"expenses"`
	GrowthPct   float64            `json:"growthPct"`
}

// Composite weights for the five sub-scores.
const (
	weightSavings         = 0.30
	weightGoals           = 0.20
	weightDiversification = 0.15
	weightExpenses        = 0.15
	weightGrowth          = 0.20
)

// SavingsScore ramps piecewise-linearly through the breakpoints
// 0%->0, 10%->20, 20%->40, 30%->70 and saturates at 100 for rates >= 50%.
func SavingsScore(rate float64) float64 {
	switch {
	case rate >= 50:
		return 100
	case rate >= 30:
		return 70 + ((rate-30)/20)*30
	case rate >= 20:
		return 40 + ((rate-20)/10)*30
	case rate >= 10:
		return 20 + ((rate-10)/10)*20
	default:
		return (rate / 10) * 20
	}
}

// GoalScore is the share of goals in good standing. With no goals at all the
// score is a neutral 50.
func GoalScore(g GoalsSummary) float64 {
	if g.Total == 0 {
		return 50
	}
	good := g.OnTrack + g.Completed + g.Ahead
	return float64(good) / float64(g.Total) * 100
}

// DiversificationScore steps on the number of distinct asset categories.
func DiversificationScore(breakdown map[string]float64) float64 {
	switch count := len(breakdown); {
	case count >= 5:
		return 100
	case count == 4:
		return 80
	case count == 3:
		return 60
	case count == 2:
		return 40
	default:
		return 20
	}
}

// ExpenseScore steps on the expense-to-income ratio. Zero income yields a
// neutral 50 rather than a division by zero.
func ExpenseScore(income, expenses float64) float64 {
	if income == 0 {
		return 50
	}
	ratio := expenses / income * 100
	switch {
	case ratio < 30:
		return 100
	case ratio < 50:
		return 80
	case ratio < 70:
		return 60
	case ratio < 90:
		return 40
	default:
		return 20
	}
}

// GrowthScore steps on the period-over-period net-worth percentage change.
func GrowthScore(growthPct float64) float64 {
	switch {
	case growthPct > 5:
		return 100
	case growthPct > 2:
		return 80
	case growthPct > 0:
		return 60
	case growthPct > -2:
		return 40
	default:
		return 20
	}
}

// HealthScore combines the five sub-scores into the weighted composite,
// rounded to the nearest integer and clamped to [0, 100]. Deterministic and
// side-effect free.
func HealthScore(in HealthInputs) int {
	total := SavingsScore(in.SavingsRate)*weightSavings +
		GoalScore(in.Goals)*weightGoals +
		DiversificationScore(in.Breakdown)*weightDiversification +
		ExpenseScore(in.Income, in.Expenses)*weightExpenses +
		GrowthScore(in.GrowthPct)*weightGrowth

	score := int(math.Round(total))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
