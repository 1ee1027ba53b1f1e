// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
)

// UserStore retrieves and updates user records.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	// UpdateUser applies a partial column update; only the supplied
	// fields change.
	UpdateUser(ctx context.Context, userID string, updates map[string]any) error
}

// AuthStore resolves login credentials. The password hash travels
// alongside the user record so the service layer never sees raw
// storage rows.
type AuthStore interface {
	// GetUserByEmail returns (nil, "", nil) when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, string, error)
}

// FinanceStore defines all data operations for accounts, balance
// entries and expenses. Implemented by the Supabase adapter.
type FinanceStore interface {
	// Accounts
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, updates map[string]any) (*domain.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error

	// Balance entries with nested per-account values, ascending by
	// date, bounded by limit.
	ListBalanceEntries(ctx context.Context, userID string, limit int) ([]domain.BalanceEntry, error)
	GetBalanceEntryByDate(ctx context.Context, userID string, date string) (*domain.BalanceEntry, error)
	CreateBalanceEntry(ctx context.Context, entry *domain.BalanceEntry) (*domain.BalanceEntry, error)
	DeleteBalanceEntry(ctx context.Context, userID, entryID string) error

	// Expenses
	ListExpenses(ctx context.Context, userID string, page, pageSize int) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
}

// Cache provides generic caching with TTL. Touch refreshes an entry's
// expiry without replacing the value (sliding TTL).
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Touch(key string) bool
	Delete(key string)
}

