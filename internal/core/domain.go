package core

import (
	"strings"
	"time"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	USD Currency = "USD"
	LKR Currency = "LKR"
	JPY Currency = "JPY"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
	CHF Currency = "CHF"
)

const (
	CategoryFood          Category = "food"
	CategoryHousing       Category = "housing"
	CategoryTransport     Category = "transport"
	CategoryInsurance     Category = "insurance"
	CategoryHealthcare    Category = "healthcare"
	CategoryEducation     Category = "education"
	CategoryEntertainment Category = "entertainment"
	CategorySavings       Category = "savings"
	CategoryDebt          Category = "debt"
	CategoryMonthly       Category = "monthly budget"
	CategoryOther         Category = "other"
	CategoryBusiness      Category = "business"
	CategorySalary        Category = "salary"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   RepetitionTypes = "daily"
	Weekly  RepetitionTypes = "weekly"
	Monthly RepetitionTypes = "monthly"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

// DefaultAllocationPercentage is applied to goals created without one.
const DefaultAllocationPercentage = 5.0

type (
	Role            string
	Currency        string
	Category        string
	TransactionType string
	RepetitionTypes string
	GoalStatus      string

	User struct {
		ID               string    `json:"id"`
		Name             string    `json:"name"`
		Email            string    `json:"email"`
		PasswordHash     string    `json:"-"`
		Role             Role      `json:"role"`
		Currency         Currency  `json:"currency"`
		TransactionLimit int64     `json:"transactionLimit"`
		CreatedAt        time.Time `json:"createdAt"`
		UpdatedAt        time.Time `json:"updatedAt"`
	}

	Budget struct {
		ID              string    `json:"id"`
		UserID          string    `json:"userId"`
		Category        Category  `json:"category"`
		Amount          float64   `json:"amount"`
		RemainingAmount float64   `json:"remaining_amount"`
		Month           Month     `json:"month"`
		CreatedAt       time.Time `json:"createdAt"`
		UpdatedAt       time.Time `json:"updatedAt"`
	}

	Transaction struct {
		ID                string          `json:"id"`
		UserID            string          `json:"userId"`
		Amount            float64         `json:"amount"`
		Currency          Currency        `json:"currency"`
		Type              TransactionType `json:"transactionType"`
		Category          Category        `json:"category"`
		Tags              []string        `json:"tags"`
		Date              time.Time       `json:"date"`
		IsRecurring       bool            `json:"isRecurring"`
		RecurrencePattern RepetitionTypes `json:"recurrencePattern,omitempty"`
		EndDate           *time.Time      `json:"endDate,omitempty"`
		CreatedAt         time.Time       `json:"createdAt"`
		UpdatedAt         time.Time       `json:"updatedAt"`
	}

	Notification struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Section   string    `json:"section"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		IsRead    bool      `json:"isRead"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// Currencies lists the supported currency codes in display order.
var Currencies = []Currency{USD, LKR, JPY, EUR, GBP, AUD, CAD, CHF}

// Categories lists the supported budget categories in display order.
var Categories = []Category{
	CategoryFood, CategoryHousing, CategoryTransport, CategoryInsurance,
	CategoryHealthcare, CategoryEducation, CategoryEntertainment, CategorySavings,
	CategoryDebt, CategoryMonthly, CategoryOther, CategoryBusiness, CategorySalary,
}

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (c Currency) IsValid() bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}

func (c Category) IsValid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// IsMonthly reports whether c is the sentinel category funding the others.
func (c Category) IsMonthly() bool {
	return c == CategoryMonthly
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (r RepetitionTypes) IsValid() bool {
	return r == Daily || r == Weekly || r == Monthly
}

// Period returns the fixed interval between occurrences. Months are 30 days.
func (r RepetitionTypes) Period() time.Duration {
	switch r {
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// CurrencyList renders the supported currencies for error messages.
func CurrencyList() string {
	s := make([]string, len(Currencies))
	for i, c := range Currencies {
		s[i] = string(c)
	}
	return strings.Join(s, ", ")
}

// CategoryList renders the supported categories for error messages.
func CategoryList() string {
	s := make([]string, len(Categories))
	for i, c := range Categories {
		s[i] = string(c)
	}
	return strings.Join(s, ", ")
}

// IsExpense reports whether the transaction draws down a budget.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// Ended reports whether a recurring transaction has passed its end date.
func (t Transaction) Ended(now time.Time) bool {
	return t.EndDate != nil && now.After(*t.EndDate)
}
