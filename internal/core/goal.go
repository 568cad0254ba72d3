package core

import "time"

// Goal is a savings target funded manually or by the allocation sweep.
// CurrentAmount must only change through Contribute or Normalize.
type Goal struct {
	ID                       string     `json:"id"`
	UserID                   string     `json:"userId"`
	Name                     string     `json:"name"`
	TargetAmount             float64    `json:"targetAmount"`
	CurrentAmount            float64    `json:"currentAmount"`
	TargetDate               time.Time  `json:"targetDate"`
	AutoAllocationPercentage float64    `json:"autoAllocationPercentage"`
	Status                   GoalStatus `json:"status"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
}

// Remaining is the amount still needed to reach the target.
func (g *Goal) Remaining() float64 {
	if g.CurrentAmount >= g.TargetAmount {
		return 0
	}
	return g.TargetAmount - g.CurrentAmount
}

// Contribute adds up to amount to the goal and returns what was applied
// plus whether this call completed the goal. The applied amount never
// exceeds Remaining.
func (g *Goal) Contribute(amount float64) (applied float64, completed bool) {
	if amount <= 0 || g.Status == GoalCompleted {
		return 0, false
	}
	applied = amount
	if need := g.Remaining(); applied > need {
		applied = need
	}
	g.CurrentAmount += applied
	return applied, g.Normalize()
}

// Normalize clamps CurrentAmount to TargetAmount and marks the goal
// completed once funded. It returns true only on the transition to
// completed; a completed goal is never reopened.
func (g *Goal) Normalize() bool {
	if g.Status == "" {
		g.Status = GoalActive
	}
	if g.CurrentAmount < 0 {
		g.CurrentAmount = 0
	}
	if g.TargetAmount <= 0 || g.CurrentAmount < g.TargetAmount {
		return false
	}
	g.CurrentAmount = g.TargetAmount
	if g.Status == GoalCompleted {
		return false
	}
	g.Status = GoalCompleted
	return true
}

// AllocatableGoal reports whether the sweep can fund the goal.
func (g *Goal) AllocatableGoal() bool {
	return g.Status == GoalActive && g.TargetAmount > 0 && g.AutoAllocationPercentage > 0
}
