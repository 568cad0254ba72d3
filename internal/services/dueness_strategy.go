package services

import (
	"fmt"
	"sync"
	"time"

	"fintrack/internal/core"
)

// DuenessChecker decides whether a recurring transaction is due.
type DuenessChecker interface {
	// IsDue reports whether a full period has elapsed between since and now.
	IsDue(since, now time.Time) bool
}

// PeriodChecker is due once a fixed interval has elapsed. Periods are not
// calendar aware: a month is always 30 days.
type PeriodChecker struct {
	Period time.Duration
}

func (c PeriodChecker) IsDue(since, now time.Time) bool {
	if c.Period <= 0 || since.IsZero() {
		return false
	}
	return now.Sub(since) >= c.Period
}

var (
	duenessMu         sync.RWMutex
	duenessStrategies = map[core.RepetitionTypes]DuenessChecker{
		core.Daily:   PeriodChecker{Period: core.Daily.Period()},
		core.Weekly:  PeriodChecker{Period: core.Weekly.Period()},
		core.Monthly: PeriodChecker{Period: core.Monthly.Period()},
	}
)

// GetDuenessChecker returns the checker registered for a recurrence pattern.
func GetDuenessChecker(pattern core.RepetitionTypes) (DuenessChecker, error) {
	duenessMu.RLock()
	defer duenessMu.RUnlock()
	checker, ok := duenessStrategies[pattern]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence pattern: %s", pattern)
	}
	return checker, nil
}

// RegisterDuenessChecker installs or replaces the checker for pattern.
func RegisterDuenessChecker(pattern core.RepetitionTypes, checker DuenessChecker) {
	duenessMu.Lock()
	defer duenessMu.Unlock()
	duenessStrategies[pattern] = checker
}
