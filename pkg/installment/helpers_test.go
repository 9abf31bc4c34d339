package installment

import (
	"github.com/google/uuid"
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

type pay struct {
	date   string
	amount int64
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func date(s string) models.Date { return models.MustParseDate(s) }

// newDevice builds a device with its derived fields already recomputed.
func newDevice(total, purchase int64, count int, freq models.Frequency, payments ...pay) *models.Device {
	d := &models.Device{
		ID:                 uuid.New(),
		CustomerID:         uuid.New(),
		Name:               "Phone",
		TotalPrice:         dec(total),
		PurchasePrice:      dec(purchase),
		InstallmentsCount:  count,
		MonthlyInstallment: MonthlyInstallment(dec(total), count),
		Frequency:          freq,
	}
	for _, p := range payments {
		d.Payments = append(d.Payments, &models.Payment{
			ID:         uuid.New(),
			DeviceID:   d.ID,
			CustomerID: d.CustomerID,
			Amount:     dec(p.amount),
			Date:       date(p.date),
		})
	}
	d.Recompute()
	return d
}

func newCustomer(name string, devices ...*models.Device) *models.Customer {
	c := &models.Customer{ID: uuid.New(), Name: name, Devices: devices}
	for _, d := range devices {
		d.CustomerID = c.ID
	}
	c.Recompute()
	return c
}
