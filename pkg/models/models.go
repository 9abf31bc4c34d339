package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the known cadences.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Customer owns a set of devices. TotalDue, TotalPaid and Balance are derived
// from the devices and are never persisted.
type Customer struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Devices   []*Device       `json:"devices"`
	TotalDue  decimal.Decimal `json:"total_due"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Device is an item sold on an installment plan.
type Device struct {
	ID                 uuid.UUID       `json:"id"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	Name               string          `json:"name"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"` // Cost basis, zero when unknown
	InstallmentsCount  int             `json:"installments_count"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"` // ceil(TotalPrice / InstallmentsCount)
	Frequency          Frequency       `json:"frequency"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	Balance            decimal.Decimal `json:"balance"`
	Payments           []*Payment      `json:"payments"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type Payment struct {
	ID         uuid.UUID       `json:"id"`
	DeviceID   uuid.UUID       `json:"device_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Date            `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DeviceDefinition is a named template used when selling a device.
type DeviceDefinition struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Recompute derives AmountPaid and Balance from the payments.
func (d *Device) Recompute() {
	paid := decimal.Zero
	for _, p := range d.Payments {
		paid = paid.Add(p.Amount)
	}
	d.AmountPaid = paid
	d.Balance = d.TotalPrice.Sub(paid)
}

// Recompute refreshes every device and then the customer totals.
func (c *Customer) Recompute() {
	due, paid := decimal.Zero, decimal.Zero
	for _, d := range c.Devices {
		d.Recompute()
		due = due.Add(d.TotalPrice)
		paid = paid.Add(d.AmountPaid)
	}
	c.TotalDue = due
	c.TotalPaid = paid
	c.Balance = due.Sub(paid)
}

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypePayment  TransactionType = "payment"
)

// StatementEntry is one row of a device or customer statement.
type StatementEntry struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	DeviceID    uuid.UUID       `json:"device_id"`
	DeviceName  string          `json:"device_name"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"` // Running balance after this entry, may be negative
	Description string          `json:"description"`
}
