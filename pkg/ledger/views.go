package ledger

import (
	"log"

	"github.com/google/uuid"
	"github.com/mcclellann/fredInstallments/pkg/installment"
	"github.com/mcclellann/fredInstallments/pkg/metrics"
	"github.com/mcclellann/fredInstallments/pkg/models"
)

// Statement returns the customer and its merged, running-balance statement.
func (l *Ledger) Statement(customerID uuid.UUID, asOf models.Date, order installment.SortOrder) (*models.Customer, []models.StatementEntry, error) {
	customer, err := l.GetCustomer(customerID)
	if err != nil {
		return nil, nil, err
	}
	metrics.Calculations.WithLabelValues("statement").Inc()
	return customer, installment.CustomerStatement(customer, asOf, order), nil
}

// DeviceSummary returns the due date, remaining installments and profit of a device.
func (l *Ledger) DeviceSummary(deviceID uuid.UUID, asOf models.Date) (*installment.Summary, error) {
	device, err := l.GetDevice(deviceID)
	if err != nil {
		return nil, err
	}
	metrics.Calculations.WithLabelValues("device_summary").Inc()
	summary := installment.DeviceSummary(device, asOf)
	return &summary, nil
}

// Dashboard builds the portfolio aggregates as of asOf.
func (l *Ledger) Dashboard(asOf models.Date, upcomingLimit int) (*installment.Dashboard, error) {
	customers, err := l.GetAllCustomers()
	if err != nil {
		return nil, err
	}
	metrics.Calculations.WithLabelValues("dashboard").Inc()
	dashboard := installment.BuildDashboard(customers, asOf, upcomingLimit)
	return &dashboard, nil
}

// OverdueDevice is one entry of an overdue scan.
type OverdueDevice struct {
	CustomerID   uuid.UUID
	CustomerName string
	DeviceID     uuid.UUID
	DeviceName   string
	DueDate      models.Date
	DaysOverdue  int
}

// ScanOverdue walks every customer, logs devices past their due date and
// refreshes the overdue gauges.
func (l *Ledger) ScanOverdue(asOf models.Date) ([]OverdueDevice, error) {
	customers, err := l.GetAllCustomers()
	if err != nil {
		log.Printf("Error getting customers for overdue scan: %v", err)
		return nil, err
	}

	var overdue []OverdueDevice
	overdueCustomers := 0
	outstanding := 0.0
	for _, c := range customers {
		outstanding += c.Balance.InexactFloat64()
		late := false
		for _, d := range c.Devices {
			info := installment.DueStatus(d, asOf)
			if info.State != installment.DueOverdue {
				continue
			}
			late = true
			overdue = append(overdue, OverdueDevice{
				CustomerID:   c.ID,
				CustomerName: c.Name,
				DeviceID:     d.ID,
				DeviceName:   d.Name,
				DueDate:      *info.NextDueDate,
				DaysOverdue:  info.DaysOverdue,
			})
			log.Printf("Device %s of customer %s is %d days overdue (due %s, balance %s)", d.ID, c.ID, info.DaysOverdue, info.NextDueDate, d.Balance.StringFixed(2))
		}
		if late {
			overdueCustomers++
		}
	}

	metrics.Calculations.WithLabelValues("overdue_scan").Inc()
	metrics.OverdueDevices.Set(float64(len(overdue)))
	metrics.OverdueCustomers.Set(float64(overdueCustomers))
	metrics.OutstandingBalance.Set(outstanding)
	return overdue, nil
}
