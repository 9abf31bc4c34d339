package installment

import (
	"testing"

	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

func TestDeviceProfit(t *testing.T) {
	tests := []struct {
		name       string
		device     *models.Device
		current    string
		expected   string
		currentPct string // empty skips the check
		expPct     string
	}{
		{
			name:       "proportional cost allocation",
			device:     newDevice(1000, 500, 10, models.FrequencyMonthly, pay{"2024-01-01", 600}),
			current:    "300",
			expected:   "500",
			currentPct: "60",
			expPct:     "100",
		},
		{
			name:     "fully paid reconciles with expected profit",
			device:   newDevice(900, 700, 3, models.FrequencyMonthly, pay{"2024-01-01", 300}, pay{"2024-02-01", 300}, pay{"2024-03-01", 300}),
			current:  "200",
			expected: "200",
		},
		{
			name:       "nothing paid",
			device:     newDevice(1000, 800, 4, models.FrequencyWeekly),
			current:    "0",
			expected:   "200",
			currentPct: "0",
			expPct:     "25",
		},
		{
			name:       "unknown cost basis",
			device:     newDevice(1000, 0, 4, models.FrequencyMonthly, pay{"2024-01-01", 600}),
			current:    "0",
			expected:   "0",
			currentPct: "0",
			expPct:     "0",
		},
		{
			name:       "zero total price does not divide by zero",
			device:     newDevice(0, 100, 1, models.FrequencyMonthly, pay{"2024-01-01", 50}),
			current:    "50",
			expected:   "-100",
			currentPct: "50",
			expPct:     "-100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DeviceProfit(tt.device)
			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(decimal.RequireFromString(want)) {
					t.Errorf("%s = %s, want %s", field, got, want)
				}
			}
			check("CurrentProfit", p.CurrentProfit, tt.current)
			check("ExpectedTotalProfit", p.ExpectedTotalProfit, tt.expected)
			if tt.currentPct != "" {
				check("ProfitPercentage", p.ProfitPercentage, tt.currentPct)
				check("ExpectedProfitPercentage", p.ExpectedProfitPercentage, tt.expPct)
			}
		})
	}
}

func TestDeviceProfitReconcilesWhenPaidOff(t *testing.T) {
	d := newDevice(1000, 333, 3, models.FrequencyMonthly, pay{"2024-01-01", 334}, pay{"2024-02-01", 333}, pay{"2024-03-01", 333})
	p := DeviceProfit(d)
	if !p.CurrentProfit.Equal(p.ExpectedTotalProfit) {
		t.Errorf("Expected current profit %s to equal expected profit %s", p.CurrentProfit, p.ExpectedTotalProfit)
	}
	if !p.ProfitPercentage.Equal(p.ExpectedProfitPercentage) {
		t.Errorf("Expected percentages to match, got %s and %s", p.ProfitPercentage, p.ExpectedProfitPercentage)
	}
}

func TestAggregateProfit(t *testing.T) {
	a := newDevice(1000, 500, 10, models.FrequencyMonthly, pay{"2024-01-01", 600})
	b := newDevice(2000, 1500, 10, models.FrequencyMonthly, pay{"2024-01-01", 2000})
	noCost := newDevice(5000, 0, 10, models.FrequencyMonthly, pay{"2024-01-01", 5000})

	s := AggregateProfit([]*models.Device{a, b, noCost, nil})

	if s.DevicesWithCost != 2 {
		t.Errorf("Expected 2 devices with cost, got %d", s.DevicesWithCost)
	}
	want := map[string]struct {
		got  decimal.Decimal
		want string
	}{
		"TotalSalesPrice":     {s.TotalSalesPrice, "3000"},
		"TotalPurchasePrice":  {s.TotalPurchasePrice, "2000"},
		"TotalAmountPaid":     {s.TotalAmountPaid, "2600"},
		"CurrentProfit":       {s.CurrentProfit, "800"},
		"ExpectedTotalProfit": {s.ExpectedTotalProfit, "1000"},
		"CurrentMargin":       {s.CurrentMargin, "40"},
		"ExpectedMargin":      {s.ExpectedMargin, "50"},
	}
	for field, c := range want {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %s, want %s", field, c.got, c.want)
		}
	}
	if s.CompletionRate.Round(4).String() != "86.6667" {
		t.Errorf("CompletionRate = %s, want 86.6667", s.CompletionRate.Round(4))
	}
}

func TestAggregateProfitWithoutCostBasis(t *testing.T) {
	s := AggregateProfit([]*models.Device{newDevice(1000, 0, 2, models.FrequencyMonthly)})
	if s.DevicesWithCost != 0 || !s.CurrentMargin.IsZero() || !s.ExpectedMargin.IsZero() || !s.CompletionRate.IsZero() {
		t.Errorf("Expected an empty summary, got %+v", s)
	}
}
