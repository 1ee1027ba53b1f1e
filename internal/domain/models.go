// Package domain holds the core types of the net-worth tracker backend.
// Following hexagonal architecture, these types carry no behavior beyond
// what can be computed from their own fields.
package domain

import "time"

// Account classification values.
const (
	AccountLiquid     = "liquid"
	AccountInvestment = "investment"
)

// User is the authenticated owner of accounts and balance entries.
// The AI token counters gate chat usage and are updated by the chat
// bookkeeping step after each completed exchange.
type User struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Currency           string `json:"currency"`
	AvailableAITokens  int64  `json:"available_ai_tokens"`
	UsedAITotalTokens  int64  `json:"used_ai_total_tokens"`
	UsedAIPromptTokens int64  `json:"used_ai_prompt_tokens"`
}

// Account is a tracked account. Classification is either "liquid"
// (checking, savings, cash) or "investment" (brokerage, pension).
// Immutable once created except for name and currency.
type Account struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Classification string    `json:"classification"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsInvestment reports whether the account holds invested assets.
func (a *Account) IsInvestment() bool {
	return a.Classification == AccountInvestment
}

// Entry is a single per-account value inside a BalanceEntry.
// Invested is the cost basis and is meaningful only for
// investment-classified accounts; nil means unknown.
type Entry struct {
	ID        string   `json:"id"`
	AccountID string   `json:"account_id"`
	Value     float64  `json:"value"`
	Invested  *float64 `json:"invested,omitempty"`
}

// BalanceEntry is a dated snapshot grouping per-account entries.
// At most one BalanceEntry exists per (user, date).
type BalanceEntry struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Date    time.Time `json:"date"`
	Entries []Entry   `json:"entries"`
}

// Expense is a recorded expense transaction. Expenses are stored and
// listed but not yet folded into the summary statistics (the
// MonthlyIncome statistic is reserved for that).
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

// TokenUsage is the usage record returned by the completion service
// after a streamed exchange finishes.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}
