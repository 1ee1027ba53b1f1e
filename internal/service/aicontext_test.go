package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/infra/observability"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockFinanceStore struct {
	accounts    []domain.Account
	entries     []domain.BalanceEntry
	entryByDate *domain.BalanceEntry
	expenses    []domain.Expense
	err         error

	created *domain.BalanceEntry
}

func (m *mockFinanceStore) ListAccounts(_ context.Context, _ string) ([]domain.Account, error) {
	return m.accounts, m.err
}

func (m *mockFinanceStore) GetAccount(_ context.Context, _, accountID string) (*domain.Account, error) {
	for i := range m.accounts {
		if m.accounts[i].ID == accountID {
			return &m.accounts[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
}

func (m *mockFinanceStore) CreateAccount(_ context.Context, account *domain.Account) (*domain.Account, error) {
	return account, m.err
}

func (m *mockFinanceStore) UpdateAccount(_ context.Context, _, accountID string, _ map[string]any) (*domain.Account, error) {
	return &domain.Account{ID: accountID}, m.err
}

func (m *mockFinanceStore) DeleteAccount(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockFinanceStore) ListBalanceEntries(_ context.Context, _ string, _ int) ([]domain.BalanceEntry, error) {
	return m.entries, m.err
}

func (m *mockFinanceStore) GetBalanceEntryByDate(_ context.Context, _, _ string) (*domain.BalanceEntry, error) {
	return m.entryByDate, m.err
}

func (m *mockFinanceStore) CreateBalanceEntry(_ context.Context, entry *domain.BalanceEntry) (*domain.BalanceEntry, error) {
	m.created = entry
	return entry, m.err
}

func (m *mockFinanceStore) DeleteBalanceEntry(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockFinanceStore) ListExpenses(_ context.Context, _ string, _, _ int) ([]domain.Expense, error) {
	return m.expenses, m.err
}

func (m *mockFinanceStore) CreateExpense(_ context.Context, expense *domain.Expense) (*domain.Expense, error) {
	return expense, m.err
}

func (m *mockFinanceStore) DeleteExpense(_ context.Context, _, _ string) error {
	return m.err
}

type mockUserStore struct {
	user    *domain.User
	err     error
	updates map[string]any
}

func (m *mockUserStore) GetUser(_ context.Context, _ string) (*domain.User, error) {
	return m.user, m.err
}

func (m *mockUserStore) UpdateUser(_ context.Context, _ string, updates map[string]any) error {
	m.updates = updates
	return m.err
}

// --- Tests ---

func TestMakeCSV_Empty(t *testing.T) {
	got := service.MakeCSV(nil)

	want := "Date,Liquid,Invested,Investments Value,Profits,Savings,Total,Change"
	if got != want {
		t.Errorf("expected header-only CSV %q, got %q", want, got)
	}
}

func TestMakeCSV_Rows(t *testing.T) {
	entries := []domain.BalanceEntry{
		fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800),
		fullEntry("e2", "2025-02-28", 1200, 500, 2300, 2000),
	}
	series := service.MakeSummaries(testLiquid, testInvestment, entries, nil)

	got := service.MakeCSV(series)
	lines := strings.Split(got, "\n")

	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	for i, line := range lines {
		if fields := strings.Split(line, ","); len(fields) != 8 {
			t.Errorf("line %d: expected 8 fields, got %d (%q)", i, len(fields), line)
		}
	}

	// First data row has undefined savings and change: empty fields.
	if lines[1] != "2025-01-31,1500,1800,2000,200,,3500," {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	if lines[2] != "2025-02-28,1700,2000,2300,300,400,4000,500" {
		t.Errorf("unexpected second row: %q", lines[2])
	}
}

func TestBuildAIContext(t *testing.T) {
	accounts := append(append([]domain.Account{}, testLiquid...), testInvestment...)
	store := &mockFinanceStore{
		accounts: accounts,
		entries: []domain.BalanceEntry{
			fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800),
			fullEntry("e2", "2025-02-28", 1200, 500, 2300, 2000),
		},
	}
	users := &mockUserStore{user: &domain.User{ID: "u1", Currency: "EUR"}}

	svc := service.NewFinanceService(store, users, observability.NewMetrics(), zap.NewNop())

	bundle, err := svc.BuildAIContext(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if bundle.Currency != "EUR" {
		t.Errorf("expected currency EUR, got %q", bundle.Currency)
	}
	if lines := strings.Split(bundle.CSV, "\n"); len(lines) != 3 {
		t.Errorf("expected 3 CSV lines, got %d", len(lines))
	}
	if bundle.LastEntryDate == nil || !bundle.LastEntryDate.Equal(day("2025-02-28")) {
		t.Errorf("expected last entry date 2025-02-28, got %v", bundle.LastEntryDate)
	}
	if len(bundle.Portfolio) != 3 {
		t.Fatalf("expected 3 portfolio positions, got %d", len(bundle.Portfolio))
	}
	if bundle.Portfolio[0].AccountName != "Checking" || bundle.Portfolio[0].Balance != 1200 {
		t.Errorf("unexpected first position: %+v", bundle.Portfolio[0])
	}
}

func TestBuildAIContext_DeletedAccountExcluded(t *testing.T) {
	entry := fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800)
	entry.Entries = append(entry.Entries, domain.Entry{AccountID: "acc-gone", Value: 777})

	accounts := append(append([]domain.Account{}, testLiquid...), testInvestment...)
	store := &mockFinanceStore{accounts: accounts, entries: []domain.BalanceEntry{entry}}
	users := &mockUserStore{user: &domain.User{ID: "u1", Currency: "USD"}}

	svc := service.NewFinanceService(store, users, observability.NewMetrics(), zap.NewNop())

	bundle, err := svc.BuildAIContext(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, p := range bundle.Portfolio {
		if p.Balance == 777 {
			t.Error("portfolio must exclude accounts that no longer exist")
		}
	}
}

func TestBuildAIContext_StoreError(t *testing.T) {
	store := &mockFinanceStore{err: errors.New("connection refused")}
	users := &mockUserStore{user: &domain.User{ID: "u1"}}

	svc := service.NewFinanceService(store, users, observability.NewMetrics(), zap.NewNop())

	if _, err := svc.BuildAIContext(context.Background(), "u1"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
