package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"fintrack/internal/core"
)

type (
	userDoc struct {
		ID               bson.ObjectID `bson:"_id,omitempty"`
		Name             string        `bson:"name"`
		Email            string        `bson:"email"`
		Password         string        `bson:"password"`
		Role             string        `bson:"role"`
		Currency         string        `bson:"currency"`
		TransactionLimit int64         `bson:"transactionLimit"`
		CreatedAt        time.Time     `bson:"createdAt"`
		UpdatedAt        time.Time     `bson:"updatedAt"`
	}

	budgetDoc struct {
		ID              bson.ObjectID `bson:"_id,omitempty"`
		UserID          bson.ObjectID `bson:"userId"`
		Category        string        `bson:"category"`
		Amount          float64       `bson:"amount"`
		RemainingAmount float64       `bson:"remaining_amount"`
		Month           string        `bson:"month"`
		CreatedAt       time.Time     `bson:"createdAt"`
		UpdatedAt       time.Time     `bson:"updatedAt"`
	}

	transactionDoc struct {
		ID                bson.ObjectID `bson:"_id,omitempty"`
		UserID            bson.ObjectID `bson:"userId"`
		Amount            float64       `bson:"amount"`
		Currency          string        `bson:"currency"`
		Type              string        `bson:"transactionType"`
		Category          string        `bson:"category"`
		Tags              []string      `bson:"tags,omitempty"`
		Date              time.Time     `bson:"date"`
		IsRecurring       bool          `bson:"isRecurring"`
		RecurrencePattern string        `bson:"recurrencePattern,omitempty"`
		EndDate           *time.Time    `bson:"endDate,omitempty"`
		CreatedAt         time.Time     `bson:"createdAt"`
		UpdatedAt         time.Time     `bson:"updatedAt"`
	}

	goalDoc struct {
		ID                       bson.ObjectID `bson:"_id,omitempty"`
		UserID                   bson.ObjectID `bson:"userId"`
		Name                     string        `bson:"name"`
		TargetAmount             float64       `bson:"targetAmount"`
		CurrentAmount            float64       `bson:"currentAmount"`
		TargetDate               time.Time     `bson:"targetDate"`
		AutoAllocationPercentage float64       `bson:"autoAllocationPercentage"`
		Status                   string        `bson:"status"`
		CreatedAt                time.Time     `bson:"createdAt"`
		UpdatedAt                time.Time     `bson:"updatedAt"`
	}

	notificationDoc struct {
		ID        bson.ObjectID `bson:"_id,omitempty"`
		UserID    bson.ObjectID `bson:"userId"`
		Section   string        `bson:"section"`
		Title     string        `bson:"title"`
		Message   string        `bson:"message"`
		IsRead    bool          `bson:"isRead"`
		CreatedAt time.Time     `bson:"createdAt"`
	}

	monthlyTotalDoc struct {
		Key struct {
			Year  int    `bson:"year"`
			Month int    `bson:"month"`
			Type  string `bson:"type"`
		} `bson:"_id"`
		Total float64 `bson:"total"`
		Count int64   `bson:"count"`
	}
)

func (d userDoc) toCore() core.User {
	return core.User{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Email:            d.Email,
		PasswordHash:     d.Password,
		Role:             core.Role(d.Role),
		Currency:         core.Currency(d.Currency),
		TransactionLimit: d.TransactionLimit,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func userFromCore(u *core.User) userDoc {
	return userDoc{
		Name:             u.Name,
		Email:            u.Email,
		Password:         u.PasswordHash,
		Role:             string(u.Role),
		Currency:         string(u.Currency),
		TransactionLimit: u.TransactionLimit,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (d budgetDoc) toCore() core.Budget {
	return core.Budget{
		ID:              d.ID.Hex(),
		UserID:          d.UserID.Hex(),
		Category:        core.Category(d.Category),
		Amount:          d.Amount,
		RemainingAmount: d.RemainingAmount,
		Month:           core.Month(d.Month),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func budgetFromCore(b *core.Budget) (budgetDoc, error) {
	uid, err := objectID(b.UserID)
	if err != nil {
		return budgetDoc{}, err
	}
	return budgetDoc{
		UserID:          uid,
		Category:        string(b.Category),
		Amount:          b.Amount,
		RemainingAmount: b.RemainingAmount,
		Month:           string(b.Month),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}, nil
}

func (d transactionDoc) toCore() core.Transaction {
	return core.Transaction{
		ID:                d.ID.Hex(),
		UserID:            d.UserID.Hex(),
		Amount:            d.Amount,
		Currency:          core.Currency(d.Currency),
		Type:              core.TransactionType(d.Type),
		Category:          core.Category(d.Category),
		Tags:              d.Tags,
		Date:              d.Date,
		IsRecurring:       d.IsRecurring,
		RecurrencePattern: core.RepetitionTypes(d.RecurrencePattern),
		EndDate:           d.EndDate,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func transactionFromCore(t *core.Transaction) (transactionDoc, error) {
	uid, err := objectID(t.UserID)
	if err != nil {
		return transactionDoc{}, err
	}
	return transactionDoc{
		UserID:            uid,
		Amount:            t.Amount,
		Currency:          string(t.Currency),
		Type:              string(t.Type),
		Category:          string(t.Category),
		Tags:              t.Tags,
		Date:              t.Date,
		IsRecurring:       t.IsRecurring,
		RecurrencePattern: string(t.RecurrencePattern),
		EndDate:           t.EndDate,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}, nil
}

func (d goalDoc) toCore() core.Goal {
	return core.Goal{
		ID:                       d.ID.Hex(),
		UserID:                   d.UserID.Hex(),
		Name:                     d.Name,
		TargetAmount:             d.TargetAmount,
		CurrentAmount:            d.CurrentAmount,
		TargetDate:               d.TargetDate,
		AutoAllocationPercentage: d.AutoAllocationPercentage,
		Status:                   core.GoalStatus(d.Status),
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
}

func goalFromCore(g *core.Goal) (goalDoc, error) {
	uid, err := objectID(g.UserID)
	if err != nil {
		return goalDoc{}, err
	}
	return goalDoc{
		UserID:                   uid,
		Name:                     g.Name,
		TargetAmount:             g.TargetAmount,
		CurrentAmount:            g.CurrentAmount,
		TargetDate:               g.TargetDate,
		AutoAllocationPercentage: g.AutoAllocationPercentage,
		Status:                   string(g.Status),
		CreatedAt:                g.CreatedAt,
		UpdatedAt:                g.UpdatedAt,
	}, nil
}

func (d notificationDoc) toCore() core.Notification {
	return core.Notification{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Section:   d.Section,
		Title:     d.Title,
		Message:   d.Message,
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt,
	}
}
