package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID        = "user_id"
	FieldBudgetID      = "budget_id"
	FieldTransactionID = "transaction_id"
	FieldGoalID        = "goal_id"
	FieldMonth         = "month"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldRemaining     = "remaining_amount"
	FieldCurrency      = "currency"
	FieldSection       = "section"
	FieldTitle         = "title"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentAuth         = "auth"
	ComponentBudget       = "budget"
	ComponentTransaction  = "transaction"
	ComponentGoal         = "goal"
	ComponentReport       = "report"
	ComponentNotification = "notification"
	ComponentCurrency     = "currency"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentCache        = "cache"
	ComponentSecurity     = "security"
	ComponentRateLimit    = "rate_limit"
	ComponentTrace        = "trace"
	ComponentBackend      = "backend"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpRead       = "read"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpDebit      = "debit"
	OpCredit     = "credit"
	OpAllocate   = "allocate"
	OpNotify     = "notify"
	OpConvert    = "convert"
	OpRecurrence = "recurrence_check"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUser(userID string) LogFields {
	if userID != "" {
		f[FieldUserID] = userID
	}
	return f
}

// WithBudget adds the budget identity and its balance after a change.
func (f LogFields) WithBudget(id, category, month string, remaining float64) LogFields {
	f[FieldBudgetID] = id
	f[FieldCategory] = category
	f[FieldMonth] = month
	f[FieldRemaining] = remaining
	return f
}

func (f LogFields) WithAmount(amount float64, currency string) LogFields {
	f[FieldAmount] = amount
	if currency != "" {
		f[FieldCurrency] = currency
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
