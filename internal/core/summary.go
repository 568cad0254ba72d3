package core

type (
	// FinancialSummary aggregates a user's ledgers over a period.
	FinancialSummary struct {
		TotalIncome       float64 `json:"totalIncome"`
		TotalExpense      float64 `json:"totalExpense"`
		TotalTransactions int     `json:"totalTransactions"`
		TotalBudget       float64 `json:"totalBudget"`
		RemainingBudget   float64 `json:"remainingBudget"`
		TotalGoals        int     `json:"totalGoals"`
		CompletedGoals    int     `json:"completedGoals"`
	}

	// TransactionReport sums transactions over a date range.
	TransactionReport struct {
		TotalIncome       float64 `json:"totalIncome"`
		TotalExpense      float64 `json:"totalExpense"`
		TotalTransactions int     `json:"totalTransactions"`
	}

	// BudgetReport sums the budgets of one month.
	BudgetReport struct {
		TotalBudget     float64  `json:"totalBudget"`
		TotalCategories int      `json:"totalCategories"`
		Data            []Budget `json:"data"`
	}

	// MonthlyTotal is one row of the year-month by type aggregation.
	MonthlyTotal struct {
		Year  int             `json:"year"`
		Month int             `json:"month"`
		Type  TransactionType `json:"transactionType"`
		Total float64         `json:"total"`
		Count int64           `json:"count"`
	}

	// Allocation records what the sweep moved into one goal.
	Allocation struct {
		GoalID    string  `json:"goalId"`
		Name      string  `json:"name"`
		Amount    float64 `json:"amount"`
		Completed bool    `json:"completed"`
	}

	// AllocationResult summarizes a sweep.
	AllocationResult struct {
		Month          Month        `json:"month"`
		TotalAllocated float64      `json:"totalAllocated"`
		Remaining      float64      `json:"remaining_amount"`
		Allocations    []Allocation `json:"allocations"`
	}
)
