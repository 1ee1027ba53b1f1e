package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/boddenberg/networth-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// csvHeader is the fixed 8-column header of the summary CSV.
const csvHeader = "Date,Liquid,Invested,Investments Value,Profits,Savings,Total,Change"

// maxEntriesPage bounds how many balance entries are loaded when
// building the chat context. Large but finite.
const maxEntriesPage = 1000

// MakeCSV renders a summary series as comma-joined text: the fixed
// header row plus one row per summary. Undefined deltas render as
// empty fields. No quoting is performed — every field is a date or a
// number, neither of which can contain a comma.
func MakeCSV(series []domain.Summary) string {
	var b strings.Builder
	b.WriteString(csvHeader)

	for i := range series {
		s := &series[i]
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			s.Date.Format("2006-01-02"),
			formatCSVNumber(s.LiquidTotal),
			formatCSVNumber(s.InvestmentsInvested),
			formatCSVNumber(s.InvestmentsTotal),
			formatCSVNumber(s.Profits),
			formatCSVOptional(s.Savings),
			formatCSVNumber(s.Total),
			formatCSVOptional(s.Change),
		}, ","))
	}
	return b.String()
}

func formatCSVNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCSVOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatCSVNumber(*v)
}

// BuildAIContext assembles the prompt-ready context bundle for a user:
// currency, CSV rendering of the summary series, last entry date,
// aggregate statistics and the current portfolio snapshot. Storage
// failures propagate to the caller; refresh callers catch and log.
func (s *FinanceService) BuildAIContext(ctx context.Context, userID string) (*domain.AIContext, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.BuildAIContext")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var (
		accounts []domain.Account
		entries  []domain.BalanceEntry
		user     *domain.User
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gCtx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.ListBalanceEntries(gCtx, userID, maxEntriesPage)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.users.GetUser(gCtx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var liquid, investment []domain.Account
	for _, a := range accounts {
		if a.IsInvestment() {
			investment = append(investment, a)
		} else {
			liquid = append(liquid, a)
		}
	}

	series := MakeSummaries(liquid, investment, entries, nil)
	stats := MakeStatistics(series, MonthsBetween)

	bundle := &domain.AIContext{
		Currency: user.Currency,
		CSV:      MakeCSV(series),
		Stats:    stats,
	}

	if len(entries) > 0 {
		last := entries[len(entries)-1]
		bundle.LastEntryDate = &last.Date

		// Portfolio snapshot: values from the most recent entry,
		// restricted to accounts that still exist.
		names := make(map[string]string, len(accounts))
		for _, a := range accounts {
			names[a.ID] = a.Name
		}
		for _, v := range last.Entries {
			name, ok := names[v.AccountID]
			if !ok {
				continue
			}
			bundle.Portfolio = append(bundle.Portfolio, domain.PortfolioPosition{
				AccountName: name,
				Balance:     v.Value,
			})
		}
	}

	return bundle, nil
}
