package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/infra/observability"
	"github.com/boddenberg/networth-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/finance")

// FinanceService owns accounts, balance entries and expenses, and
// derives the summary series and chat context from them.
type FinanceService struct {
	store   port.FinanceStore
	users   port.UserStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewFinanceService creates the finance service with all dependencies injected.
func NewFinanceService(store port.FinanceStore, users port.UserStore, metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		store:   store,
		users:   users,
		metrics: metrics,
		logger:  logger,
	}
}

// ============================================================
// Accounts
// ============================================================

func (s *FinanceService) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ListAccounts")
	defer span.End()

	return s.store.ListAccounts(ctx, userID)
}

func (s *FinanceService) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CreateAccount")
	defer span.End()

	if account.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if account.Classification != domain.AccountLiquid && account.Classification != domain.AccountInvestment {
		return nil, &domain.ErrValidation{Field: "classification", Message: "must be 'liquid' or 'investment'"}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = time.Now()

	return s.store.CreateAccount(ctx, account)
}

func (s *FinanceService) UpdateAccount(ctx context.Context, userID, accountID string, updates map[string]any) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.UpdateAccount")
	defer span.End()

	// Classification is immutable once created; only name and
	// currency may change.
	for field := range updates {
		if field != "name" && field != "currency" {
			return nil, &domain.ErrValidation{Field: field, Message: "not updatable"}
		}
	}
	return s.store.UpdateAccount(ctx, userID, accountID, updates)
}

func (s *FinanceService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteAccount")
	defer span.End()

	return s.store.DeleteAccount(ctx, userID, accountID)
}

// ============================================================
// Balance entries
// ============================================================

func (s *FinanceService) ListBalanceEntries(ctx context.Context, userID string) ([]domain.BalanceEntry, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ListBalanceEntries")
	defer span.End()

	return s.store.ListBalanceEntries(ctx, userID, maxEntriesPage)
}

// CreateBalanceEntry stores a dated snapshot. At most one entry may
// exist per (user, date).
func (s *FinanceService) CreateBalanceEntry(ctx context.Context, entry *domain.BalanceEntry) (*domain.BalanceEntry, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CreateBalanceEntry")
	defer span.End()

	if entry.Date.IsZero() {
		return nil, &domain.ErrValidation{Field: "date", Message: "required"}
	}

	day := entry.Date.Format("2006-01-02")
	existing, err := s.store.GetBalanceEntryByDate(ctx, entry.UserID, day)
	if err != nil {
		return nil, fmt.Errorf("check existing entry: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrDuplicate{Key: fmt.Sprintf("balance entry for %s", day)}
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	for i := range entry.Entries {
		if entry.Entries[i].ID == "" {
			entry.Entries[i].ID = uuid.NewString()
		}
	}

	return s.store.CreateBalanceEntry(ctx, entry)
}

func (s *FinanceService) DeleteBalanceEntry(ctx context.Context, userID, entryID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteBalanceEntry")
	defer span.End()

	return s.store.DeleteBalanceEntry(ctx, userID, entryID)
}

// ============================================================
// Expenses
// ============================================================

func (s *FinanceService) ListExpenses(ctx context.Context, userID string, page, pageSize int) ([]domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ListExpenses")
	defer span.End()

	return s.store.ListExpenses(ctx, userID, page, pageSize)
}

func (s *FinanceService) CreateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CreateExpense")
	defer span.End()

	if expense.Date.IsZero() {
		return nil, &domain.ErrValidation{Field: "date", Message: "required"}
	}
	if expense.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}

	return s.store.CreateExpense(ctx, expense)
}

func (s *FinanceService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteExpense")
	defer span.End()

	return s.store.DeleteExpense(ctx, userID, expenseID)
}

// ============================================================
// Derived summary series
// ============================================================

// SummaryResult is the derived view returned to the frontend: the full
// summary series plus its scalar statistics.
type SummaryResult struct {
	Summaries  []domain.Summary  `json:"summaries"`
	Statistics domain.Statistics `json:"statistics"`
}

// GetSummary recomputes the summary series from live storage rows.
// The optional live entry represents the in-progress, not-yet-committed
// snapshot the user is editing; it is appended last, never persisted.
func (s *FinanceService) GetSummary(ctx context.Context, userID string, live *domain.BalanceEntry) (*SummaryResult, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.GetSummary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("summary", time.Since(start))
	}()

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	entries, err := s.store.ListBalanceEntries(ctx, userID, maxEntriesPage)
	if err != nil {
		return nil, fmt.Errorf("list balance entries: %w", err)
	}

	var liquid, investment []domain.Account
	for _, a := range accounts {
		if a.IsInvestment() {
			investment = append(investment, a)
		} else {
			liquid = append(liquid, a)
		}
	}

	series := MakeSummaries(liquid, investment, entries, live)
	return &SummaryResult{
		Summaries:  series,
		Statistics: MakeStatistics(series, MonthsBetween),
	}, nil
}
