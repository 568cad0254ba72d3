package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// transactionRequest is the wire form of a transaction body. Dates arrive
// as strings so both YYYY-MM-DD and RFC 3339 are accepted.
type transactionRequest struct {
	Amount            *float64 `json:"amount"`
	Currency          *string  `json:"currency"`
	Type              *string  `json:"transactionType"`
	Category          *string  `json:"category"`
	Tags              []string `json:"tags"`
	Date              *string  `json:"date"`
	IsRecurring       *bool    `json:"isRecurring"`
	RecurrencePattern *string  `json:"recurrencePattern"`
	EndDate           *string  `json:"endDate"`
}

func (t transactionRequest) dates() (date, end *time.Time, err error) {
	if date, err = optionalDate(t.Date); err != nil {
		return nil, nil, err
	}
	if end, err = optionalDate(t.EndDate); err != nil {
		return nil, nil, err
	}
	return date, end, nil
}

func (t transactionRequest) createInput() (services.CreateTransactionInput, error) {
	date, end, err := t.dates()
	if err != nil {
		return services.CreateTransactionInput{}, err
	}
	return services.CreateTransactionInput{
		Amount:            deref(t.Amount),
		Currency:          deref(t.Currency),
		Type:              deref(t.Type),
		Category:          deref(t.Category),
		Tags:              t.Tags,
		Date:              date,
		IsRecurring:       deref(t.IsRecurring),
		RecurrencePattern: deref(t.RecurrencePattern),
		EndDate:           end,
	}, nil
}

func (t transactionRequest) updateInput() (services.UpdateTransactionInput, error) {
	date, end, err := t.dates()
	if err != nil {
		return services.UpdateTransactionInput{}, err
	}
	return services.UpdateTransactionInput{
		Amount:            t.Amount,
		Currency:          t.Currency,
		Type:              t.Type,
		Category:          t.Category,
		Tags:              t.Tags,
		Date:              date,
		IsRecurring:       t.IsRecurring,
		RecurrencePattern: t.RecurrencePattern,
		EndDate:           end,
	}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (s *Server) transactionRoutes(r chi.Router) {
	r.Post("/create", s.handleCreateTransaction)
	r.Get("/", s.listTransactions(func(*http.Request) services.TransactionQuery { return services.TransactionQuery{} }))
	r.Get("/expenses", s.listTransactions(func(*http.Request) services.TransactionQuery {
		return services.TransactionQuery{Type: string(core.Expense)}
	}))
	r.Get("/incomes", s.listTransactions(func(*http.Request) services.TransactionQuery {
		return services.TransactionQuery{Type: string(core.Income)}
	}))
	r.Get("/filter", s.listTransactions(func(r *http.Request) services.TransactionQuery {
		q := r.URL.Query()
		return services.TransactionQuery{Type: q.Get("type"), Category: q.Get("category"), Tag: q.Get("tag")}
	}))
	r.Get("/report", s.handleTransactionReport)
	r.Post("/recurring/check", s.handleRecurringCheck)
	r.Put("/{id}", s.handleUpdateTransaction)
	r.Delete("/{id}", s.handleDeleteTransaction)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.createInput()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.transactions.Create(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, t)
}

func (s *Server) listTransactions(query func(*http.Request) services.TransactionQuery) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := s.transactions.List(r.Context(), callerID(r), query(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, txs)
	}
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.updateInput()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.transactions.Update(r.Context(), callerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Transaction deleted successfully")
}

func (s *Server) handleTransactionReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.transactions.Report(r.Context(), callerID(r), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleRecurringCheck(w http.ResponseWriter, r *http.Request) {
	due, err := s.recurring.ProcessDue(r.Context(), callerID(r), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"due": due})
}
