package domain

import (
	"encoding/json"
	"math"
	"time"
)

// PartialSummary is the per-date aggregate derived from one BalanceEntry.
// Never persisted; recomputed on every read.
type PartialSummary struct {
	ID                  string    `json:"id"`
	Date                time.Time `json:"date"`
	LiquidTotal         float64   `json:"liquid_total"`
	InvestmentsTotal    float64   `json:"investments_total"`
	InvestmentsInvested float64   `json:"investments_invested"`
	Profits             float64   `json:"profits"`
	Total               float64   `json:"total"`
	IsMissingValues     bool      `json:"is_missing_values"`
	IsLive              bool      `json:"is_live"`
}

// Summary enriches a PartialSummary with period-over-period deltas.
// Change and Savings are nil on the first element of a series.
// Savings is the net-worth delta excluding investment gains/losses.
type Summary struct {
	PartialSummary
	Previous *PartialSummary `json:"-"`
	Change   *float64        `json:"change,omitempty"`
	Savings  *float64        `json:"savings,omitempty"`
}

// Statistics are scalar reductions over a summary series. With fewer
// than two summaries the per-step averages divide by zero and come out
// NaN or infinite; consumers must render those as "unknown", never as
// numbers. MonthlyIncome is reserved and always nil for now.
type Statistics struct {
	AverageSavings float64  `json:"average_savings"`
	AverageTotal   float64  `json:"average_total"`
	AverageProfits float64  `json:"average_profits"`
	AverageDiff    float64  `json:"average_diff"`
	MonthlyIncome  *float64 `json:"monthly_income,omitempty"`
}

// MarshalJSON renders non-finite statistics as JSON null.
// encoding/json refuses NaN and ±Inf outright, and a client must see
// "insufficient data" there, never a number.
func (s Statistics) MarshalJSON() ([]byte, error) {
	finite := func(v float64) *float64 {
		if !IsFiniteStat(v) {
			return nil
		}
		return &v
	}

	var income *float64
	if s.MonthlyIncome != nil {
		income = finite(*s.MonthlyIncome)
	}

	return json.Marshal(struct {
		AverageSavings *float64 `json:"average_savings"`
		AverageTotal   *float64 `json:"average_total"`
		AverageProfits *float64 `json:"average_profits"`
		AverageDiff    *float64 `json:"average_diff"`
		MonthlyIncome  *float64 `json:"monthly_income,omitempty"`
	}{
		AverageSavings: finite(s.AverageSavings),
		AverageTotal:   finite(s.AverageTotal),
		AverageProfits: finite(s.AverageProfits),
		AverageDiff:    finite(s.AverageDiff),
		MonthlyIncome:  income,
	})
}

// PortfolioPosition is one (account name, balance) pair from the most
// recent balance entry.
type PortfolioPosition struct {
	AccountName string  `json:"account_name"`
	Balance     float64 `json:"balance"`
}

// AIContext is the prompt-ready bundle handed to the chat session:
// CSV rendering of the summary series, aggregate statistics and the
// current portfolio snapshot. Ephemeral, rebuilt per session and on
// demand.
type AIContext struct {
	Currency      string
	CSV           string
	LastEntryDate *time.Time
	Stats         Statistics
	Portfolio     []PortfolioPosition
}

// IsFiniteStat reports whether a statistic value is a real number.
// NaN and ±Inf mean "insufficient data" (fewer than two summaries, or
// a zero time distance) and must not be presented as numbers.
func IsFiniteStat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
