package export

import (
	"fmt"
	"io"

	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	CustomersSheet = "Customers"
	StatementSheet = "Statement"

	dateFormat = "02-01-2006"
)

var customerHeaders = []string{
	"Customer", "Phone", "Device", "Total Price", "Amount Paid",
	"Balance", "Installments", "Installment", "Payment Date", "Payment Amount",
}

var customerWidths = []float64{25, 15, 25, 12, 12, 12, 10, 12, 12, 12}

var statementHeaders = []string{"Date", "Device", "Type", "Description", "Amount", "Balance"}

var statementWidths = []float64{12, 25, 10, 35, 12, 12}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func newWorkbook(sheet string, headers []string, widths []float64) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, widths[i])
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	return f.SetSheetRow(sheet, cell, &values)
}

// CustomersWorkbook lays out one row per payment. Customers without devices
// and devices without payments still get a single row.
func CustomersWorkbook(customers []*models.Customer) (*excelize.File, error) {
	f, err := newWorkbook(CustomersSheet, customerHeaders, customerWidths)
	if err != nil {
		return nil, err
	}

	row := 2
	add := func(values ...interface{}) error {
		err := setRow(f, CustomersSheet, row, values)
		row++
		return err
	}

	for _, c := range customers {
		if len(c.Devices) == 0 {
			if err := add(c.Name, c.Phone); err != nil {
				f.Close()
				return nil, err
			}
			continue
		}
		for _, d := range c.Devices {
			device := []interface{}{
				c.Name, c.Phone, d.Name,
				money(d.TotalPrice), money(d.AmountPaid), money(d.Balance),
				d.InstallmentsCount, money(d.MonthlyInstallment),
			}
			if len(d.Payments) == 0 {
				if err := add(device...); err != nil {
					f.Close()
					return nil, err
				}
				continue
			}
			for _, p := range d.Payments {
				values := append(append([]interface{}{}, device...), p.Date.Time().Format(dateFormat), money(p.Amount))
				if err := add(values...); err != nil {
					f.Close()
					return nil, err
				}
			}
		}
	}
	return f, nil
}

// StatementWorkbook writes a customer's statement entries in the given order.
func StatementWorkbook(customer *models.Customer, entries []models.StatementEntry) (*excelize.File, error) {
	f, err := newWorkbook(StatementSheet, statementHeaders, statementWidths)
	if err != nil {
		return nil, err
	}
	f.SetDocProps(&excelize.DocProperties{Title: fmt.Sprintf("Statement for %s", customer.Name)})

	for i, e := range entries {
		values := []interface{}{
			e.Date.Time().Format(dateFormat), e.DeviceName, string(e.Type),
			e.Description, money(e.Amount), money(e.Balance),
		}
		if err := setRow(f, StatementSheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// WriteCustomers renders CustomersWorkbook to w.
func WriteCustomers(w io.Writer, customers []*models.Customer) error {
	f, err := CustomersWorkbook(customers)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// WriteStatement renders StatementWorkbook to w.
func WriteStatement(w io.Writer, customer *models.Customer, entries []models.StatementEntry) error {
	f, err := StatementWorkbook(customer, entries)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// CustomersFilename names the export after the day it was taken.
func CustomersFilename(asOf models.Date) string {
	return fmt.Sprintf("customers_%s.xlsx", asOf)
}

func StatementFilename(customer *models.Customer, asOf models.Date) string {
	return fmt.Sprintf("statement_%s_%s.xlsx", customer.ID, asOf)
}
