package service_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/service"
)

func TestMonthsBetween(t *testing.T) {
	cases := []struct {
		first, last string
		want        float64
	}{
		{"2025-01-31", "2025-01-31", 0},
		{"2025-01-31", "2025-02-28", 1},
		{"2024-11-30", "2025-02-28", 3},
		{"2024-01-31", "2025-01-31", 12},
	}
	for _, c := range cases {
		if got := service.MonthsBetween(day(c.first), day(c.last)); got != c.want {
			t.Errorf("MonthsBetween(%s, %s) = %f, want %f", c.first, c.last, got, c.want)
		}
	}
}

func TestMakeStatistics_Averages(t *testing.T) {
	entries := []domain.BalanceEntry{
		fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800),
		fullEntry("e2", "2025-02-28", 1200, 500, 2300, 2000),
		fullEntry("e3", "2025-03-31", 1300, 600, 2500, 2100),
	}
	series := service.MakeSummaries(testLiquid, testInvestment, entries, nil)

	stats := service.MakeStatistics(series, service.MonthsBetween)

	// Totals: 3500, 4000, 4400.
	if want := (3500.0 + 4000.0 + 4400.0) / 3.0; stats.AverageTotal != want {
		t.Errorf("expected average total %f, got %f", want, stats.AverageTotal)
	}
	// Savings: 400 and 300 over two steps.
	if want := (400.0 + 300.0) / 2.0; stats.AverageSavings != want {
		t.Errorf("expected average savings %f, got %f", want, stats.AverageSavings)
	}
	// Investment value deltas: 300 and 200 over two steps.
	if want := (300.0 + 200.0) / 2.0; stats.AverageProfits != want {
		t.Errorf("expected average profits %f, got %f", want, stats.AverageProfits)
	}
	// Total grew 900 over 2 months.
	if want := 450.0; stats.AverageDiff != want {
		t.Errorf("expected average diff %f, got %f", want, stats.AverageDiff)
	}
	if stats.MonthlyIncome != nil {
		t.Error("monthly income is reserved and must be nil")
	}
}

func TestMakeStatistics_EmptySeries(t *testing.T) {
	stats := service.MakeStatistics(nil, service.MonthsBetween)

	if !math.IsNaN(stats.AverageTotal) {
		t.Errorf("expected NaN average total for empty series, got %f", stats.AverageTotal)
	}
	if domain.IsFiniteStat(stats.AverageTotal) {
		t.Error("IsFiniteStat must reject the empty-series average total")
	}
}

func TestMakeStatistics_SingleElement(t *testing.T) {
	entries := []domain.BalanceEntry{fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800)}
	series := service.MakeSummaries(testLiquid, testInvestment, entries, nil)

	stats := service.MakeStatistics(series, service.MonthsBetween)

	if !math.IsNaN(stats.AverageSavings) {
		t.Errorf("expected NaN average savings with one element, got %f", stats.AverageSavings)
	}
	if !math.IsNaN(stats.AverageProfits) {
		t.Errorf("expected NaN average profits with one element, got %f", stats.AverageProfits)
	}
	if stats.AverageTotal != 3500 {
		t.Errorf("expected average total 3500, got %f", stats.AverageTotal)
	}
	if stats.AverageDiff != 0 {
		t.Errorf("expected zero average diff with one element, got %f", stats.AverageDiff)
	}
}

func TestSummaryResult_SingleEntryEncodes(t *testing.T) {
	// One entry makes the per-step averages NaN; the HTTP response must
	// still encode, rendering them as null.
	entries := []domain.BalanceEntry{fullEntry("e1", "2025-01-31", 1000, 500, 2000, 1800)}
	series := service.MakeSummaries(testLiquid, testInvestment, entries, nil)

	result := service.SummaryResult{
		Summaries:  series,
		Statistics: service.MakeStatistics(series, service.MonthsBetween),
	}

	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("a single-entry summary result must encode, got %v", err)
	}
	if !strings.Contains(string(body), `"average_savings":null`) {
		t.Errorf("expected null average_savings in %s", body)
	}
	if !strings.Contains(string(body), `"average_total":3500`) {
		t.Errorf("expected numeric average_total in %s", body)
	}
}

func TestMakeStatistics_ZeroDistance(t *testing.T) {
	// Two entries in the same calendar month: elapsed months is zero and
	// the growth rate divides by it.
	entries := []domain.BalanceEntry{
		fullEntry("e1", "2025-01-10", 1000, 500, 2000, 1800),
		fullEntry("e2", "2025-01-20", 1200, 500, 2300, 2000),
	}
	series := service.MakeSummaries(testLiquid, testInvestment, entries, nil)

	stats := service.MakeStatistics(series, service.MonthsBetween)

	if !math.IsInf(stats.AverageDiff, 1) {
		t.Errorf("expected +Inf average diff for zero distance, got %f", stats.AverageDiff)
	}
	if domain.IsFiniteStat(stats.AverageDiff) {
		t.Error("IsFiniteStat must reject an infinite average diff")
	}
}
