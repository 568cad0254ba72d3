package services

import (
	"testing"

	"fintrack/internal/core"
)

func TestCreateGoal(t *testing.T) {
	future := fixtureNow.AddDate(0, 3, 0)
	yesterday := fixtureNow.AddDate(0, 0, -1)

	tests := []struct {
		name string
		in   CreateGoalInput
		kind core.Kind
		msg  string
	}{
		{"missing name", CreateGoalInput{TargetAmount: 100, TargetDate: &future}, core.KindValidation, "Name, target amount, and target date are required"},
		{"missing date", CreateGoalInput{Name: "car", TargetAmount: 100}, core.KindValidation, "Name, target amount, and target date are required"},
		{"zero target", CreateGoalInput{Name: "car", TargetDate: &future}, core.KindValidation, "Name, target amount, and target date are required"},
		{"past date", CreateGoalInput{Name: "car", TargetAmount: 100, TargetDate: &yesterday}, core.KindRule, "Target date must be in the future"},
		{"now is not future", CreateGoalInput{Name: "car", TargetAmount: 100, TargetDate: ptr(fixtureNow)}, core.KindRule, "Target date must be in the future"},
		{"percentage too high", CreateGoalInput{Name: "car", TargetAmount: 100, TargetDate: &future, AutoAllocationPercentage: ptr(101.0)}, core.KindValidation, "Auto allocation percentage must be between 0 and 100"},
		{"percentage negative", CreateGoalInput{Name: "car", TargetAmount: 100, TargetDate: &future, AutoAllocationPercentage: ptr(-1.0)}, core.KindValidation, "Auto allocation percentage must be between 0 and 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.goals.Create(f.ctx, f.user.ID, tt.in)
			assertError(t, err, tt.kind, tt.msg)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		f := newFixture(t)
		g, err := f.goals.Create(f.ctx, f.user.ID, CreateGoalInput{Name: "car", TargetAmount: 100, TargetDate: &future})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if g.AutoAllocationPercentage != core.DefaultAllocationPercentage || g.Status != core.GoalActive || g.CurrentAmount != 0 {
			t.Errorf("goal = %+v", g)
		}
		if !f.hasTitle(t, "Goal Created") {
			t.Error("expected Goal Created notification")
		}
	})
}

func TestUpdateGoal(t *testing.T) {
	f := newFixture(t)
	future := fixtureNow.AddDate(1, 0, 0)
	g, err := f.goals.Create(f.ctx, f.user.ID, CreateGoalInput{Name: "trip", TargetAmount: 1000, TargetDate: &future})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.goals.Contribute(f.ctx, f.user.ID, g.ID, 400); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	_, err = f.goals.Update(f.ctx, f.user.ID, g.ID, UpdateGoalInput{TargetDate: ptr(fixtureNow.AddDate(0, 0, -1))})
	assertError(t, err, core.KindRule, "Target date must be in the future")

	_, err = f.goals.Update(f.ctx, f.user.ID, g.ID, UpdateGoalInput{AutoAllocationPercentage: ptr(120.0)})
	assertError(t, err, core.KindValidation, "Auto allocation percentage must be between 0 and 100")

	got, err := f.goals.Update(f.ctx, f.user.ID, g.ID, UpdateGoalInput{Name: ptr("holiday"), TargetAmount: ptr(300.0)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "holiday" || got.Status != core.GoalCompleted || got.CurrentAmount != 300 {
		t.Errorf("goal = %+v, want completed at 300", got)
	}
	if !f.hasTitle(t, "Goal Updated") || !f.hasTitle(t, "Goal Completed") {
		t.Errorf("notifications = %v", f.titles(t))
	}

	got, err = f.goals.Update(f.ctx, f.user.ID, g.ID, UpdateGoalInput{TargetAmount: ptr(5000.0)})
	if err != nil {
		t.Fatalf("raise target: %v", err)
	}
	if got.Status != core.GoalCompleted {
		t.Errorf("status reverted to %s", got.Status)
	}

	_, err = f.goals.Update(f.ctx, f.user.ID, "000000000000000000000000", UpdateGoalInput{})
	assertError(t, err, core.KindNotFound, "Goal not found")
}

func TestContributeGoal(t *testing.T) {
	f := newFixture(t)
	future := fixtureNow.AddDate(1, 0, 0)
	g, err := f.goals.Create(f.ctx, f.user.ID, CreateGoalInput{Name: "laptop", TargetAmount: 500, TargetDate: &future})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.goals.Contribute(f.ctx, f.user.ID, g.ID, 0)
	assertError(t, err, core.KindValidation, "Amount must be a positive number")

	got, err := f.goals.Contribute(f.ctx, f.user.ID, g.ID, 800)
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if got.CurrentAmount != 500 || got.Status != core.GoalCompleted {
		t.Errorf("goal = %+v, want clamped to 500 and completed", got)
	}
	if n := f.countTitle(t, "Goal Completed"); n != 1 {
		t.Errorf("Goal Completed notifications = %d, want 1", n)
	}

	_, err = f.goals.Contribute(f.ctx, f.user.ID, g.ID, 10)
	assertError(t, err, core.KindRule, "Goal is already completed")
}

func TestDeleteGoal(t *testing.T) {
	f := newFixture(t)
	future := fixtureNow.AddDate(1, 0, 0)
	g, err := f.goals.Create(f.ctx, f.user.ID, CreateGoalInput{Name: "phone", TargetAmount: 500, TargetDate: &future})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := &core.User{Name: "Kamal", Email: "kamal@example.com", Role: core.RoleUser}
	if err := f.store.CreateUser(f.ctx, stranger); err != nil {
		t.Fatalf("create user: %v", err)
	}
	assertError(t, f.goals.Delete(f.ctx, stranger.ID, g.ID), core.KindNotFound, "Goal not found")

	if err := f.goals.Delete(f.ctx, f.user.ID, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertError(t, f.goals.Delete(f.ctx, f.user.ID, g.ID), core.KindNotFound, "Goal not found")
	if !f.hasTitle(t, "Goal Deleted") {
		t.Error("expected Goal Deleted notification")
	}

	goals, err := f.goals.List(f.ctx, f.user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(goals) != 0 {
		t.Errorf("goals = %d, want 0", len(goals))
	}
}
