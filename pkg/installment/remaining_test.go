package installment

import (
	"testing"

	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

func TestMonthlyInstallment(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		count int
		want  int64
	}{
		{"even split", 900, 3, 300},
		{"rounds up", 1000, 3, 334},
		{"single installment", 750, 1, 750},
		{"zero count", 1000, 0, 0},
		{"negative count", 1000, -2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyInstallment(dec(tt.total), tt.count)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("MonthlyInstallment() = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingInstallments(t *testing.T) {
	tests := []struct {
		name   string
		device *models.Device
		want   int
	}{
		{"nothing paid", newDevice(900, 0, 3, models.FrequencyMonthly), 3},
		{"one paid", newDevice(900, 0, 3, models.FrequencyMonthly, pay{"2024-01-10", 300}), 2},
		{"partial payment rounds up", newDevice(900, 0, 3, models.FrequencyMonthly, pay{"2024-01-10", 299}), 3},
		{"paid off", newDevice(900, 0, 3, models.FrequencyMonthly, pay{"2024-01-10", 900}), 0},
		{"overpaid is floored at zero", newDevice(900, 0, 3, models.FrequencyMonthly, pay{"2024-01-10", 1200}), 0},
		{"no installment amount", newDevice(900, 0, 0, models.FrequencyMonthly), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingInstallments(tt.device); got != tt.want {
				t.Errorf("RemainingInstallments() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingInstallmentsDivergesFromScheduleCount(t *testing.T) {
	// One large payment: the schedule advanced once, the balance covers two installments.
	d := newDevice(900, 0, 3, models.FrequencyMonthly, pay{"2024-01-10", 600})
	if got := RemainingInstallments(d); got != 1 {
		t.Errorf("Expected 1 remaining installment, got %d", got)
	}
	due, _ := NextDueDate(d)
	if !due.Equal(date("2024-02-10")) {
		t.Errorf("Expected due date 2024-02-10, got %s", due)
	}
}

func TestDeviceSummary(t *testing.T) {
	d := newDevice(900, 600, 3, models.FrequencyWeekly, pay{"2024-01-10", 300})
	s := DeviceSummary(d, date("2024-01-15"))

	if s.PaidOff {
		t.Error("Expected device not to be paid off")
	}
	if !s.Balance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected balance 600, got %s", s.Balance)
	}
	if s.Due.State != DueUpcoming || *s.Due.DaysRemaining != 2 || s.Due.Tier != TierWarning {
		t.Errorf("Unexpected due info %+v", s.Due)
	}
	if s.RemainingInstallments != 2 || s.PeriodUnit != "week" {
		t.Errorf("Expected 2 weeks remaining, got %d %s", s.RemainingInstallments, s.PeriodUnit)
	}
	if !s.Profit.CurrentProfit.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected current profit 100, got %s", s.Profit.CurrentProfit)
	}
}
