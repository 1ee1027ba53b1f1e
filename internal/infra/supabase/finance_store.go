package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/networth-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Accounts — CRUD via PostgREST
// ============================================================

// supabaseAccount maps the accounts table columns.
type supabaseAccount struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Classification string    `json:"classification"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

func (a *supabaseAccount) toDomain() domain.Account {
	return domain.Account{
		ID:             a.ID,
		UserID:         a.UserID,
		Name:           a.Name,
		Classification: a.Classification,
		Currency:       a.Currency,
		CreatedAt:      a.CreatedAt,
	}
}

func (c *Client) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&order=created_at.asc", userID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []supabaseAccount
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode accounts: %w", err)
		}
	}
	accounts := make([]domain.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, rows[i].toDomain())
	}
	return accounts, nil
}

func (c *Client) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&id=eq.%s&limit=1", userID, accountID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []supabaseAccount
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	acct := rows[0].toDomain()
	return &acct, nil
}

func (c *Client) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAccount")
	defer span.End()

	body, err := c.doPost(ctx, "accounts", map[string]any{
		"id":             account.ID,
		"user_id":        account.UserID,
		"name":           account.Name,
		"classification": account.Classification,
		"currency":       account.Currency,
		"created_at":     account.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	var rows []supabaseAccount
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		// Representation missing; trust the write.
		return account, nil
	}
	created := rows[0].toDomain()

	c.logger.Info("supabase: account created",
		zap.String("account_id", created.ID),
		zap.String("user_id", created.UserID),
	)
	return &created, nil
}

func (c *Client) UpdateAccount(ctx context.Context, userID, accountID string, updates map[string]any) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateAccount")
	defer span.End()

	path := fmt.Sprintf("accounts?user_id=eq.%s&id=eq.%s", userID, accountID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetAccount(ctx, userID, accountID)
}

func (c *Client) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteAccount")
	defer span.End()

	return c.doDelete(ctx, fmt.Sprintf("accounts?user_id=eq.%s&id=eq.%s", userID, accountID))
}

// ============================================================
// Balance entries — dated snapshots with nested per-account values
// ============================================================

// supabaseBalanceEntry uses PostgREST resource embedding to pull the
// nested account_entries rows in the same query.
type supabaseBalanceEntry struct {
	ID      string                 `json:"id"`
	UserID  string                 `json:"user_id"`
	Date    string                 `json:"date"`
	Entries []supabaseAccountEntry `json:"account_entries"`
}

type supabaseAccountEntry struct {
	ID        string   `json:"id"`
	AccountID string   `json:"account_id"`
	Value     float64  `json:"value"`
	Invested  *float64 `json:"invested"`
}

func (e *supabaseBalanceEntry) toDomain() (domain.BalanceEntry, error) {
	date, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		date, err = time.Parse("2006-01-02", e.Date)
		if err != nil {
			return domain.BalanceEntry{}, fmt.Errorf("parse entry date %q: %w", e.Date, err)
		}
	}

	entries := make([]domain.Entry, 0, len(e.Entries))
	for _, v := range e.Entries {
		entries = append(entries, domain.Entry{
			ID:        v.ID,
			AccountID: v.AccountID,
			Value:     v.Value,
			Invested:  v.Invested,
		})
	}

	return domain.BalanceEntry{
		ID:      e.ID,
		UserID:  e.UserID,
		Date:    date,
		Entries: entries,
	}, nil
}

func (c *Client) ListBalanceEntries(ctx context.Context, userID string, limit int) ([]domain.BalanceEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBalanceEntries")
	defer span.End()

	path := fmt.Sprintf("balance_entries?select=*,account_entries(*)&user_id=eq.%s&order=date.asc&limit=%d", userID, limit)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []supabaseBalanceEntry
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode balance entries: %w", err)
		}
	}

	entries := make([]domain.BalanceEntry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetBalanceEntryByDate returns nil when no entry exists for the day.
// Used to enforce one entry per (user, date).
func (c *Client) GetBalanceEntryByDate(ctx context.Context, userID string, date string) (*domain.BalanceEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBalanceEntryByDate")
	defer span.End()

	path := fmt.Sprintf("balance_entries?select=*,account_entries(*)&user_id=eq.%s&date=eq.%s&limit=1", userID, date)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []supabaseBalanceEntry
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode balance entry: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	e, err := rows[0].toDomain()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) CreateBalanceEntry(ctx context.Context, entry *domain.BalanceEntry) (*domain.BalanceEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBalanceEntry")
	defer span.End()

	_, err := c.doPost(ctx, "balance_entries", map[string]any{
		"id":      entry.ID,
		"user_id": entry.UserID,
		"date":    entry.Date.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	// Nested values go to their own table, linked by entry id.
	if len(entry.Entries) > 0 {
		rows := make([]map[string]any, 0, len(entry.Entries))
		for _, v := range entry.Entries {
			rows = append(rows, map[string]any{
				"id":               v.ID,
				"balance_entry_id": entry.ID,
				"account_id":       v.AccountID,
				"value":            v.Value,
				"invested":         v.Invested,
			})
		}
		if _, err := c.doPost(ctx, "account_entries", rows); err != nil {
			return nil, err
		}
	}

	c.logger.Info("supabase: balance entry created",
		zap.String("entry_id", entry.ID),
		zap.String("user_id", entry.UserID),
		zap.Int("values", len(entry.Entries)),
	)
	return entry, nil
}

func (c *Client) DeleteBalanceEntry(ctx context.Context, userID, entryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBalanceEntry")
	defer span.End()

	// Child rows first; PostgREST has no cascading delete here.
	if err := c.doDelete(ctx, fmt.Sprintf("account_entries?balance_entry_id=eq.%s", entryID)); err != nil {
		return err
	}
	return c.doDelete(ctx, fmt.Sprintf("balance_entries?user_id=eq.%s&id=eq.%s", userID, entryID))
}

// ============================================================
// Expenses
// ============================================================

type supabaseExpense struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

func (c *Client) ListExpenses(ctx context.Context, userID string, page, pageSize int) ([]domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpenses")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("expenses?user_id=eq.%s&order=date.desc&limit=%d&offset=%d", userID, pageSize, offset)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []supabaseExpense
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode expenses: %w", err)
		}
	}

	expenses := make([]domain.Expense, 0, len(rows))
	for _, r := range rows {
		date, _ := time.Parse(time.RFC3339, r.Date)
		if date.IsZero() {
			date, _ = time.Parse("2006-01-02", r.Date)
		}
		expenses = append(expenses, domain.Expense{
			ID:          r.ID,
			UserID:      r.UserID,
			Date:        date,
			Amount:      r.Amount,
			Category:    r.Category,
			Description: r.Description,
		})
	}
	return expenses, nil
}

func (c *Client) CreateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateExpense")
	defer span.End()

	_, err := c.doPost(ctx, "expenses", map[string]any{
		"id":          expense.ID,
		"user_id":     expense.UserID,
		"date":        expense.Date.Format("2006-01-02"),
		"amount":      expense.Amount,
		"category":    expense.Category,
		"description": expense.Description,
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (c *Client) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteExpense")
	defer span.End()

	return c.doDelete(ctx, fmt.Sprintf("expenses?user_id=eq.%s&id=eq.%s", userID, expenseID))
}
