package installment

import (
	"fmt"
	"sort"

	"github.com/mcclellann/fredInstallments/pkg/models"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder accepts "asc" or "desc"; anything else falls back to def.
func ParseSortOrder(s string, def SortOrder) SortOrder {
	switch SortOrder(s) {
	case Ascending, Descending:
		return SortOrder(s)
	}
	return def
}

// DeviceStatement rebuilds the device's ledger: a purchase entry opening the
// balance at the total price, then one entry per payment in date order.
// The purchase is dated at the earliest payment, or asOf when nothing was paid.
// Running balances are not clamped, so overpayment shows as a negative balance.
func DeviceStatement(d *models.Device, asOf models.Date) []models.StatementEntry {
	payments := SortedPayments(d)

	opened := asOf
	if len(payments) > 0 {
		opened = payments[0].Date
	}

	entries := make([]models.StatementEntry, 0, len(payments)+1)
	balance := d.TotalPrice
	entries = append(entries, models.StatementEntry{
		ID:          "purchase-" + d.ID.String(),
		Date:        opened,
		DeviceID:    d.ID,
		DeviceName:  d.Name,
		Type:        models.TransactionTypePurchase,
		Amount:      d.TotalPrice,
		Balance:     balance,
		Description: fmt.Sprintf("Purchase of device %s", d.Name),
	})

	for _, p := range payments {
		balance = balance.Sub(p.Amount)
		entries = append(entries, models.StatementEntry{
			ID:          p.ID.String(),
			Date:        p.Date,
			DeviceID:    d.ID,
			DeviceName:  d.Name,
			Type:        models.TransactionTypePayment,
			Amount:      p.Amount,
			Balance:     balance,
			Description: fmt.Sprintf("Payment for device %s", d.Name),
		})
	}
	return entries
}

// CustomerStatement merges the statements of every device of the customer.
// Balances never cross devices. Entries on the same date keep device order,
// then transaction order.
func CustomerStatement(c *models.Customer, asOf models.Date, order SortOrder) []models.StatementEntry {
	var entries []models.StatementEntry
	for _, d := range c.Devices {
		entries = append(entries, DeviceStatement(d, asOf)...)
	}
	SortStatement(entries, order)
	return entries
}

// SortStatement orders entries by date in place, stable on ties.
func SortStatement(entries []models.StatementEntry, order SortOrder) {
	sort.SliceStable(entries, func(i, j int) bool {
		if order == Descending {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].Date.Before(entries[j].Date)
	})
}
