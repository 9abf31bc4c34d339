package installment

import (
	"sort"

	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

// Alert thresholds in days for the due-date tiers.
const (
	AlertMaxDays   = 0
	WarningMaxDays = 3
)

type DueState string

const (
	DueUndetermined DueState = "undetermined"
	DueOverdue      DueState = "overdue"
	DueToday        DueState = "due_today"
	DueUpcoming     DueState = "upcoming"
)

type Tier string

const (
	TierNone    Tier = "none"
	TierAlert   Tier = "alert"
	TierWarning Tier = "warning"
	TierNormal  Tier = "normal"
)

// DueInfo describes the next installment of a device relative to an as-of date.
// NextDueDate and DaysRemaining are nil when the schedule is undetermined.
type DueInfo struct {
	NextDueDate   *models.Date `json:"next_due_date"`
	DaysRemaining *int         `json:"days_remaining"`
	DaysOverdue   int          `json:"days_overdue"`
	State         DueState     `json:"state"`
	Tier          Tier         `json:"tier"`
}

// AddPeriods moves anchor forward by n periods of the given frequency.
// An unknown frequency is treated as monthly.
func AddPeriods(anchor models.Date, f models.Frequency, n int) models.Date {
	switch f {
	case models.FrequencyDaily:
		return anchor.AddDays(n)
	case models.FrequencyWeekly:
		return anchor.AddDays(7 * n)
	default:
		return anchor.AddMonths(n)
	}
}

// SortedPayments returns a copy of the device's payments ordered by date.
// Payments on the same date keep their recorded order.
func SortedPayments(d *models.Device) []*models.Payment {
	sorted := make([]*models.Payment, len(d.Payments))
	copy(sorted, d.Payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// NextDueDate projects the next due date as the first payment date plus one
// period per recorded payment, whatever the payment amounts were.
// It reports false when the device is paid off or has no payments yet.
func NextDueDate(d *models.Device) (models.Date, bool) {
	if d.Balance.LessThanOrEqual(decimal.Zero) {
		return models.Date{}, false
	}
	if len(d.Payments) == 0 {
		return models.Date{}, false
	}
	anchor := SortedPayments(d)[0].Date
	return AddPeriods(anchor, d.Frequency, len(d.Payments)), true
}

// DaysUntilNextPayment returns the signed day count from asOf to the next due date.
// Negative values mean overdue.
func DaysUntilNextPayment(d *models.Device, asOf models.Date) (int, bool) {
	due, ok := NextDueDate(d)
	if !ok {
		return 0, false
	}
	return asOf.DaysUntil(due), true
}

// IsOverdue reports whether the device's next due date lies strictly before asOf.
func IsOverdue(d *models.Device, asOf models.Date) bool {
	days, ok := DaysUntilNextPayment(d, asOf)
	return ok && days < 0
}

// Classify maps a day count onto its alert tier.
func Classify(days int) Tier {
	switch {
	case days <= AlertMaxDays:
		return TierAlert
	case days <= WarningMaxDays:
		return TierWarning
	default:
		return TierNormal
	}
}

// DueStatus bundles the due date, day count, state and tier of a device.
func DueStatus(d *models.Device, asOf models.Date) DueInfo {
	due, ok := NextDueDate(d)
	if !ok {
		return DueInfo{State: DueUndetermined, Tier: TierNone}
	}
	days := asOf.DaysUntil(due)
	info := DueInfo{
		NextDueDate:   &due,
		DaysRemaining: &days,
		Tier:          Classify(days),
	}
	switch {
	case days < 0:
		info.State = DueOverdue
		info.DaysOverdue = -days
	case days == 0:
		info.State = DueToday
	default:
		info.State = DueUpcoming
	}
	return info
}
