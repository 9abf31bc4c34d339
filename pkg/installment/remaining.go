package installment

import (
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

// MonthlyInstallment splits the total price into count installments, rounding up.
func MonthlyInstallment(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Ceil()
}

// RemainingInstallments estimates how many nominal installments cover the
// balance. It is not reconciled against InstallmentsCount minus payments made.
func RemainingInstallments(d *models.Device) int {
	if d.MonthlyInstallment.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	n := d.Balance.Div(d.MonthlyInstallment).Ceil().IntPart()
	if n < 0 {
		return 0
	}
	return int(n)
}

// PeriodUnit names the calendar unit one installment covers.
func PeriodUnit(f models.Frequency) string {
	switch f {
	case models.FrequencyDaily:
		return "day"
	case models.FrequencyWeekly:
		return "week"
	default:
		return "month"
	}
}

// Summary is everything a device card needs, computed as of one date.
type Summary struct {
	DeviceID              string          `json:"device_id"`
	TotalPrice            decimal.Decimal `json:"total_price"`
	AmountPaid            decimal.Decimal `json:"amount_paid"`
	Balance               decimal.Decimal `json:"balance"`
	PaidOff               bool            `json:"paid_off"`
	Due                   DueInfo         `json:"due"`
	RemainingInstallments int             `json:"remaining_installments"`
	InstallmentsCount     int             `json:"installments_count"`
	PeriodUnit            string          `json:"period_unit"`
	Profit                Profit          `json:"profit"`
}

// DeviceSummary computes the derived fields of a device as of asOf.
func DeviceSummary(d *models.Device, asOf models.Date) Summary {
	return Summary{
		DeviceID:              d.ID.String(),
		TotalPrice:            d.TotalPrice,
		AmountPaid:            d.AmountPaid,
		Balance:               d.Balance,
		PaidOff:               d.Balance.LessThanOrEqual(decimal.Zero),
		Due:                   DueStatus(d, asOf),
		RemainingInstallments: RemainingInstallments(d),
		InstallmentsCount:     d.InstallmentsCount,
		PeriodUnit:            PeriodUnit(d.Frequency),
		Profit:                DeviceProfit(d),
	}
}
