package domain_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
)

func TestStatistics_MarshalNonFiniteAsNull(t *testing.T) {
	stats := domain.Statistics{
		AverageSavings: math.NaN(),
		AverageTotal:   3500,
		AverageProfits: math.NaN(),
		AverageDiff:    math.Inf(1),
	}

	body, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("non-finite statistics must still encode, got %v", err)
	}

	var decoded map[string]*float64
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got %v: %s", err, body)
	}

	if decoded["average_savings"] != nil {
		t.Errorf("expected null average_savings, got %v", *decoded["average_savings"])
	}
	if decoded["average_profits"] != nil {
		t.Errorf("expected null average_profits, got %v", *decoded["average_profits"])
	}
	if decoded["average_diff"] != nil {
		t.Errorf("expected null average_diff, got %v", *decoded["average_diff"])
	}
	if decoded["average_total"] == nil || *decoded["average_total"] != 3500 {
		t.Errorf("finite average_total must stay a number, got %v", decoded["average_total"])
	}
	if strings.Contains(string(body), "monthly_income") {
		t.Errorf("nil monthly income must be omitted, got %s", body)
	}
}

func TestStatistics_MarshalFinite(t *testing.T) {
	income := 2500.0
	stats := domain.Statistics{
		AverageSavings: 400,
		AverageTotal:   3500,
		AverageProfits: 250,
		AverageDiff:    450,
		MonthlyIncome:  &income,
	}

	body, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var decoded struct {
		AverageSavings *float64 `json:"average_savings"`
		MonthlyIncome  *float64 `json:"monthly_income"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if decoded.AverageSavings == nil || *decoded.AverageSavings != 400 {
		t.Errorf("expected average_savings 400, got %v", decoded.AverageSavings)
	}
	if decoded.MonthlyIncome == nil || *decoded.MonthlyIncome != 2500 {
		t.Errorf("expected monthly_income 2500, got %v", decoded.MonthlyIncome)
	}
}
