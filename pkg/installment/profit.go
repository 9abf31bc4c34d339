package installment

import (
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Profit is the realized and projected profit of a single device.
type Profit struct {
	CurrentProfit            decimal.Decimal `json:"current_profit"`
	ExpectedTotalProfit      decimal.Decimal `json:"expected_total_profit"`
	ProfitPercentage         decimal.Decimal `json:"profit_percentage"`
	ExpectedProfitPercentage decimal.Decimal `json:"expected_profit_percentage"`
}

// ProfitSummary aggregates profit over every device that has a cost basis.
type ProfitSummary struct {
	TotalSalesPrice     decimal.Decimal `json:"total_sales_price"`
	TotalPurchasePrice  decimal.Decimal `json:"total_purchase_price"`
	TotalAmountPaid     decimal.Decimal `json:"total_amount_paid"`
	CurrentProfit       decimal.Decimal `json:"current_profit"`
	ExpectedTotalProfit decimal.Decimal `json:"expected_total_profit"`
	CurrentMargin       decimal.Decimal `json:"current_margin"`
	ExpectedMargin      decimal.Decimal `json:"expected_margin"`
	CompletionRate      decimal.Decimal `json:"completion_rate"`
	DevicesWithCost     int             `json:"devices_with_cost"`
}

// DeviceProfit allocates the purchase price proportionally to the share of the
// sale price collected so far. Without a cost basis every figure is zero.
func DeviceProfit(d *models.Device) Profit {
	if d.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return Profit{
			CurrentProfit:            decimal.Zero,
			ExpectedTotalProfit:      decimal.Zero,
			ProfitPercentage:         decimal.Zero,
			ExpectedProfitPercentage: decimal.Zero,
		}
	}

	allocatedCost := decimal.Zero
	if !d.TotalPrice.IsZero() {
		allocatedCost = d.PurchasePrice.Mul(d.AmountPaid).Div(d.TotalPrice)
	}
	current := d.AmountPaid.Sub(allocatedCost)
	expected := d.TotalPrice.Sub(d.PurchasePrice)

	return Profit{
		CurrentProfit:            current,
		ExpectedTotalProfit:      expected,
		ProfitPercentage:         percentOf(current, d.PurchasePrice),
		ExpectedProfitPercentage: percentOf(expected, d.PurchasePrice),
	}
}

// AggregateProfit sums prices and profits first and derives the margins from
// the sums; per-device percentages are never averaged.
func AggregateProfit(devices []*models.Device) ProfitSummary {
	s := ProfitSummary{
		TotalSalesPrice:     decimal.Zero,
		TotalPurchasePrice:  decimal.Zero,
		TotalAmountPaid:     decimal.Zero,
		CurrentProfit:       decimal.Zero,
		ExpectedTotalProfit: decimal.Zero,
	}
	for _, d := range devices {
		if d == nil || d.PurchasePrice.LessThanOrEqual(decimal.Zero) {
			continue
		}
		p := DeviceProfit(d)
		s.DevicesWithCost++
		s.TotalSalesPrice = s.TotalSalesPrice.Add(d.TotalPrice)
		s.TotalPurchasePrice = s.TotalPurchasePrice.Add(d.PurchasePrice)
		s.TotalAmountPaid = s.TotalAmountPaid.Add(d.AmountPaid)
		s.CurrentProfit = s.CurrentProfit.Add(p.CurrentProfit)
		s.ExpectedTotalProfit = s.ExpectedTotalProfit.Add(p.ExpectedTotalProfit)
	}
	s.CurrentMargin = percentOf(s.CurrentProfit, s.TotalPurchasePrice)
	s.ExpectedMargin = percentOf(s.ExpectedTotalProfit, s.TotalPurchasePrice)
	s.CompletionRate = percentOf(s.TotalAmountPaid, s.TotalSalesPrice)
	return s
}

// CustomerDevices flattens the devices of all customers.
func CustomerDevices(customers []*models.Customer) []*models.Device {
	var devices []*models.Device
	for _, c := range customers {
		if c == nil {
			continue
		}
		devices = append(devices, c.Devices...)
	}
	return devices
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}
