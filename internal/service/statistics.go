package service

import (
	"time"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
)

// DistanceFunc maps the first and last entry dates to a numeric
// distance, e.g. elapsed months. A zero distance makes AverageDiff
// non-finite; see MakeStatistics.
type DistanceFunc func(first, last time.Time) float64

// MonthsBetween is the default distance metric: calendar months
// elapsed between two dates.
func MonthsBetween(first, last time.Time) float64 {
	years := last.Year() - first.Year()
	months := int(last.Month()) - int(first.Month())
	return float64(years*12 + months)
}

// MakeStatistics reduces a summary series into scalar averages.
//
// With n=0 or n=1 the per-step divisions are by zero and yield NaN or
// ±Inf; the same happens to AverageDiff when the distance between the
// first and last dates is zero. That is deliberate: callers must treat
// any non-finite statistic as "insufficient data" (domain.IsFiniteStat)
// instead of presenting it as a number.
func MakeStatistics(series []domain.Summary, distance DistanceFunc) domain.Statistics {
	n := len(series)

	var sumSavings, sumTotal, sumProfitDeltas float64
	for i := range series {
		s := &series[i]
		sumTotal += s.Total
		if s.Savings != nil {
			sumSavings += *s.Savings
		}
		if s.Previous != nil {
			sumProfitDeltas += s.InvestmentsTotal - s.Previous.InvestmentsTotal
		}
	}

	averageDiff := 0.0
	if n > 1 {
		first, last := &series[0], &series[n-1]
		averageDiff = (last.Total - first.Total) / distance(first.Date, last.Date)
	}

	return domain.Statistics{
		AverageSavings: sumSavings / float64(n-1),
		AverageTotal:   sumTotal / float64(n),
		AverageProfits: sumProfitDeltas / float64(n-1),
		AverageDiff:    averageDiff,
		MonthlyIncome:  nil, // reserved, not derived from expenses yet
	}
}
