package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type (
	CreateGoalInput struct {
		Name                     string     `json:"name"`
		TargetAmount             float64    `json:"targetAmount"`
		TargetDate               *time.Time `json:"targetDate"`
		AutoAllocationPercentage *float64   `json:"autoAllocationPercentage"`
	}

	// UpdateGoalInput carries a partial update; nil fields are unchanged.
	UpdateGoalInput struct {
		Name                     *string    `json:"name"`
		TargetAmount             *float64   `json:"targetAmount"`
		TargetDate               *time.Time `json:"targetDate"`
		AutoAllocationPercentage *float64   `json:"autoAllocationPercentage"`
	}
)

type GoalService struct {
	goals    storage.GoalStore
	notifier *Notifier
	now      func() time.Time
}

func NewGoalService(goals storage.GoalStore, notifier *Notifier) *GoalService {
	return &GoalService{
		goals:    goals,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *GoalService) checkTargetDate(d time.Time) error {
	if !d.After(s.now()) {
		return core.Rule("Target date must be in the future")
	}
	return nil
}

func checkPercentage(p float64) error {
	if p < 0 || p > 100 {
		return core.Validation("Auto allocation percentage must be between 0 and 100")
	}
	return nil
}

func (s *GoalService) Create(ctx context.Context, userID string, in CreateGoalInput) (*core.Goal, error) {
	if in.Name == "" || in.TargetAmount <= 0 || in.TargetDate == nil || in.TargetDate.IsZero() {
		return nil, core.Validation("Name, target amount, and target date are required")
	}
	if err := s.checkTargetDate(*in.TargetDate); err != nil {
		return nil, err
	}
	pct := core.DefaultAllocationPercentage
	if in.AutoAllocationPercentage != nil {
		pct = *in.AutoAllocationPercentage
	}
	if err := checkPercentage(pct); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	g := &core.Goal{
		UserID:                   userID,
		Name:                     in.Name,
		TargetAmount:             in.TargetAmount,
		TargetDate:               in.TargetDate.UTC(),
		AutoAllocationPercentage: pct,
		Status:                   core.GoalActive,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	g.Normalize()

	if err := s.goals.CreateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	s.notifier.Emit(ctx, userID, SectionGoals, "Goal Created", fmt.Sprintf("New goal '%s' created", g.Name))

	slog.InfoContext(ctx, "Goal created",
		log.FieldComponent, log.ComponentGoal,
		log.FieldUserID, userID,
		log.FieldGoalID, g.ID,
		log.FieldAmount, g.TargetAmount)

	return g, nil
}

func (s *GoalService) Update(ctx context.Context, userID, id string, in UpdateGoalInput) (*core.Goal, error) {
	g, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, lookupError(err, "Goal")
	}

	if in.Name != nil && *in.Name != "" {
		g.Name = *in.Name
	}
	if in.TargetAmount != nil {
		if *in.TargetAmount <= 0 {
			return nil, core.Validation("Target amount must be a positive number")
		}
		g.TargetAmount = *in.TargetAmount
	}
	if in.TargetDate != nil {
		if err := s.checkTargetDate(*in.TargetDate); err != nil {
			return nil, err
		}
		g.TargetDate = in.TargetDate.UTC()
	}
	if in.AutoAllocationPercentage != nil {
		if err := checkPercentage(*in.AutoAllocationPercentage); err != nil {
			return nil, err
		}
		g.AutoAllocationPercentage = *in.AutoAllocationPercentage
	}

	completed := g.Normalize()
	g.UpdatedAt = s.now().UTC()

	if err := s.goals.UpdateGoal(ctx, g); err != nil {
		return nil, lookupError(err, "Goal")
	}

	s.notifier.Emit(ctx, userID, SectionGoals, "Goal Updated", fmt.Sprintf("Goal '%s' updated", g.Name))
	if completed {
		s.notifier.Emit(ctx, userID, SectionGoals, "Goal Completed", fmt.Sprintf("Goal '%s' has been completed", g.Name))
	}
	return g, nil
}

// Contribute funds a goal manually. The amount applied is capped at what
// the goal still needs.
func (s *GoalService) Contribute(ctx context.Context, userID, id string, amount float64) (*core.Goal, error) {
	if amount <= 0 {
		return nil, core.Validation("Amount must be a positive number")
	}
	g, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, lookupError(err, "Goal")
	}
	if g.Status == core.GoalCompleted {
		return nil, core.Rule("Goal is already completed")
	}

	applied, completed := g.Contribute(amount)
	g.UpdatedAt = s.now().UTC()
	if err := s.goals.UpdateGoal(ctx, g); err != nil {
		return nil, lookupError(err, "Goal")
	}

	slog.InfoContext(ctx, "Goal funded",
		log.FieldComponent, log.ComponentGoal,
		log.FieldUserID, userID,
		log.FieldGoalID, g.ID,
		log.FieldAmount, applied)

	if completed {
		s.notifier.Emit(ctx, userID, SectionGoals, "Goal Completed", fmt.Sprintf("Goal '%s' has been completed", g.Name))
	}
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	g, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return lookupError(err, "Goal")
	}
	if err := s.goals.DeleteGoal(ctx, userID, id); err != nil {
		return lookupError(err, "Goal")
	}
	s.notifier.Emit(ctx, userID, SectionGoals, "Goal Deleted", fmt.Sprintf("Goal '%s' deleted", g.Name))
	return nil
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.Goal, error) {
	goals, err := s.goals.ListGoals(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}
