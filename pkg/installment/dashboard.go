package installment

import (
	"sort"

	"github.com/google/uuid"
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

// DefaultUpcomingLimit is how many upcoming payments the dashboard lists.
const DefaultUpcomingLimit = 7

type Financials struct {
	TotalDue          decimal.Decimal `json:"total_due"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Balance           decimal.Decimal `json:"balance"`
	PaymentPercentage int64           `json:"payment_percentage"`
}

type StatusOverview struct {
	PaymentPercentage    int64 `json:"payment_percentage"`
	CustomersWithOverdue int   `json:"customers_with_overdue"`
	TotalCustomers       int   `json:"total_customers"`
	OverduePercentage    int64 `json:"overdue_percentage"`
}

type UpcomingPayment struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	DeviceID     uuid.UUID       `json:"device_id"`
	DeviceName   string          `json:"device_name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      models.Date     `json:"due_date"`
	DaysLeft     int             `json:"days_left"`
	Tier         Tier            `json:"tier"`
}

// Dashboard is the portfolio-wide view rendered on the home page.
type Dashboard struct {
	AsOf       models.Date       `json:"as_of"`
	Financials Financials        `json:"financials"`
	Status     StatusOverview    `json:"status"`
	Profit     ProfitSummary     `json:"profit"`
	Upcoming   []UpcomingPayment `json:"upcoming"`
}

// FinancialSummary totals what is due, paid and outstanding across customers.
func FinancialSummary(customers []*models.Customer) Financials {
	f := Financials{TotalDue: decimal.Zero, TotalPaid: decimal.Zero, Balance: decimal.Zero}
	for _, c := range customers {
		f.TotalDue = f.TotalDue.Add(c.TotalDue)
		f.TotalPaid = f.TotalPaid.Add(c.TotalPaid)
		f.Balance = f.Balance.Add(c.Balance)
	}
	f.PaymentPercentage = roundedPercent(f.TotalPaid, f.TotalDue)
	return f
}

// CustomerHasOverdue reports whether any unpaid device of c is past its due date.
func CustomerHasOverdue(c *models.Customer, asOf models.Date) bool {
	for _, d := range c.Devices {
		if IsOverdue(d, asOf) {
			return true
		}
	}
	return false
}

// PaymentStatus counts customers holding at least one overdue device.
func PaymentStatus(customers []*models.Customer, asOf models.Date) StatusOverview {
	totalDue, totalPaid := decimal.Zero, decimal.Zero
	s := StatusOverview{TotalCustomers: len(customers)}
	for _, c := range customers {
		totalDue = totalDue.Add(c.TotalDue)
		totalPaid = totalPaid.Add(c.TotalPaid)
		if CustomerHasOverdue(c, asOf) {
			s.CustomersWithOverdue++
		}
	}
	s.PaymentPercentage = roundedPercent(totalPaid, totalDue)
	s.OverduePercentage = roundedPercent(
		decimal.NewFromInt(int64(s.CustomersWithOverdue)),
		decimal.NewFromInt(int64(s.TotalCustomers)),
	)
	return s
}

// UpcomingPayments lists unpaid devices with a known due date, most urgent first.
// A limit <= 0 returns every candidate.
func UpcomingPayments(customers []*models.Customer, asOf models.Date, limit int) []UpcomingPayment {
	var upcoming []UpcomingPayment
	for _, c := range customers {
		for _, d := range c.Devices {
			due, ok := NextDueDate(d)
			if !ok {
				continue
			}
			days := asOf.DaysUntil(due)
			upcoming = append(upcoming, UpcomingPayment{
				CustomerID:   c.ID,
				CustomerName: c.Name,
				DeviceID:     d.ID,
				DeviceName:   d.Name,
				Amount:       d.MonthlyInstallment,
				DueDate:      due,
				DaysLeft:     days,
				Tier:         Classify(days),
			})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DaysLeft < upcoming[j].DaysLeft
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// BuildDashboard assembles every portfolio aggregate for asOf.
func BuildDashboard(customers []*models.Customer, asOf models.Date, upcomingLimit int) Dashboard {
	return Dashboard{
		AsOf:       asOf,
		Financials: FinancialSummary(customers),
		Status:     PaymentStatus(customers, asOf),
		Profit:     AggregateProfit(CustomerDevices(customers)),
		Upcoming:   UpcomingPayments(customers, asOf, upcomingLimit),
	}
}

func roundedPercent(part, whole decimal.Decimal) int64 {
	return percentOf(part, whole).Round(0).IntPart()
}
