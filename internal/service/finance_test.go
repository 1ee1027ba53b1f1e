package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/infra/observability"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"go.uber.org/zap"
)

func newFinanceService(store *mockFinanceStore) *service.FinanceService {
	return service.NewFinanceService(store, &mockUserStore{}, observability.NewMetrics(), zap.NewNop())
}

func TestCreateAccount_InvalidClassification(t *testing.T) {
	svc := newFinanceService(&mockFinanceStore{})

	_, err := svc.CreateAccount(context.Background(), &domain.Account{
		Name:           "Crypto",
		Classification: "speculative",
	})

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAccount_ClassificationImmutable(t *testing.T) {
	svc := newFinanceService(&mockFinanceStore{})

	_, err := svc.UpdateAccount(context.Background(), "u1", "acc-1", map[string]any{
		"classification": domain.AccountInvestment,
	})

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAccount_NameAllowed(t *testing.T) {
	svc := newFinanceService(&mockFinanceStore{})

	if _, err := svc.UpdateAccount(context.Background(), "u1", "acc-1", map[string]any{"name": "Renamed"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCreateBalanceEntry_DuplicateDate(t *testing.T) {
	existing := fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800)
	svc := newFinanceService(&mockFinanceStore{entryByDate: &existing})

	entry := fullEntry("", "2025-01-31", 1100, 500, 2100, 1900)
	_, err := svc.CreateBalanceEntry(context.Background(), &entry)

	var duplicate *domain.ErrDuplicate
	if !errors.As(err, &duplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCreateBalanceEntry_AssignsIDs(t *testing.T) {
	store := &mockFinanceStore{}
	svc := newFinanceService(store)

	entry := fullEntry("", "2025-01-31", 1000, 500, 2000, 1800)
	created, err := svc.CreateBalanceEntry(context.Background(), &entry)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.ID == "" {
		t.Error("expected entry id to be assigned")
	}
	for i, v := range created.Entries {
		if v.ID == "" {
			t.Errorf("expected nested entry %d id to be assigned", i)
		}
	}
}

func TestGetSummary_PartitionsAccounts(t *testing.T) {
	accounts := append(append([]domain.Account{}, testLiquid...), testInvestment...)
	store := &mockFinanceStore{
		accounts: accounts,
		entries: []domain.BalanceEntry{
			fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800),
		},
	}
	svc := newFinanceService(store)

	result, err := svc.GetSummary(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(result.Summaries))
	}
	if result.Summaries[0].LiquidTotal != 1500 || result.Summaries[0].InvestmentsTotal != 2000 {
		t.Errorf("account partition wrong: %+v", result.Summaries[0].PartialSummary)
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	svc := newFinanceService(&mockFinanceStore{})

	_, err := svc.CreateExpense(context.Background(), &domain.Expense{
		Date:   day("2025-01-31"),
		Amount: -5,
	})

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
