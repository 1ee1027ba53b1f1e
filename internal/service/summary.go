package service

import (
	"github.com/boddenberg/networth-bfa-go/internal/domain"
)

// MakeSummaries turns raw balance entries into the derived summary
// series. Pure function: no I/O, deterministic for fixed inputs.
//
// Entries must arrive in ascending date order. The optional live entry
// is a synthetic, unpersisted snapshot of the in-progress period; it is
// always appended last and marked IsLive. Nested entries whose account
// belongs to neither set are ignored.
func MakeSummaries(liquid, investment []domain.Account, entries []domain.BalanceEntry, live *domain.BalanceEntry) []domain.Summary {
	liquidIDs := make(map[string]struct{}, len(liquid))
	for _, a := range liquid {
		liquidIDs[a.ID] = struct{}{}
	}
	investmentIDs := make(map[string]struct{}, len(investment))
	for _, a := range investment {
		investmentIDs[a.ID] = struct{}{}
	}

	summaries := make([]domain.Summary, 0, len(entries)+1)
	for _, e := range entries {
		summaries = append(summaries, domain.Summary{
			PartialSummary: makePartial(&e, liquidIDs, investmentIDs, len(liquid), len(investment), false),
		})
	}
	if live != nil {
		summaries = append(summaries, domain.Summary{
			PartialSummary: makePartial(live, liquidIDs, investmentIDs, len(liquid), len(investment), true),
		})
	}

	// Second pass links each summary to its predecessor and derives
	// the period-over-period deltas. The first element keeps nil
	// Previous/Change/Savings.
	for i := 1; i < len(summaries); i++ {
		prev := &summaries[i-1].PartialSummary
		cur := &summaries[i]
		cur.Previous = prev

		change := cur.Total - prev.Total
		cur.Change = &change

		// Net-worth delta excluding investment gains/losses.
		savings := (cur.Total - cur.Profits) - (prev.Total - prev.Profits)
		cur.Savings = &savings
	}

	return summaries
}

func makePartial(e *domain.BalanceEntry, liquidIDs, investmentIDs map[string]struct{}, liquidCount, investmentCount int, isLive bool) domain.PartialSummary {
	var (
		liquidTotal         float64
		investmentsTotal    float64
		investmentsInvested float64
		matchedLiquid       int
		matchedInvestment   int
		missingInvested     bool
	)

	for _, v := range e.Entries {
		if _, ok := liquidIDs[v.AccountID]; ok {
			liquidTotal += v.Value
			matchedLiquid++
			continue
		}
		if _, ok := investmentIDs[v.AccountID]; ok {
			investmentsTotal += v.Value
			matchedInvestment++
			if v.Invested == nil {
				missingInvested = true
			} else {
				investmentsInvested += *v.Invested
			}
		}
		// Entries for unknown accounts (e.g. deleted since the
		// snapshot) are skipped.
	}

	return domain.PartialSummary{
		ID:                  e.ID,
		Date:                e.Date,
		LiquidTotal:         liquidTotal,
		InvestmentsTotal:    investmentsTotal,
		InvestmentsInvested: investmentsInvested,
		Profits:             investmentsTotal - investmentsInvested,
		Total:               liquidTotal + investmentsTotal,
		IsMissingValues:     matchedLiquid < liquidCount || matchedInvestment < investmentCount || missingInvested,
		IsLive:              isLive,
	}
}
