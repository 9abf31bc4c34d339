package ledger

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/fredInstallments/pkg/installment"
	"github.com/mcclellann/fredInstallments/pkg/metrics"
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/mcclellann/fredInstallments/pkg/store"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks validation failures on caller-supplied values.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Ledger handles the business logic for customers, devices and payments.
// Everything it returns has its derived balances recomputed from payments.
type Ledger struct {
	storage store.Storage // Use the Storage interface
	now     func() time.Time
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage) *Ledger {
	return &Ledger{
		storage: s,
		now:     time.Now,
	}
}

// Today is the ledger's current local calendar date.
func (l *Ledger) Today() models.Date {
	return models.DateOf(l.now())
}

// CreateCustomer registers a new customer with no devices.
func (l *Ledger) CreateCustomer(name, phone string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("customer name is required")
	}

	customer := &models.Customer{
		ID:        uuid.New(),
		Name:      name,
		Phone:     strings.TrimSpace(phone),
		Devices:   []*models.Device{},
		CreatedAt: l.now(),
		UpdatedAt: l.now(),
	}
	if err := l.storage.CreateCustomer(customer); err != nil {
		return nil, fmt.Errorf("failed to store customer: %w", err)
	}
	customer.Recompute()
	return customer, nil
}

// GetCustomer retrieves a customer with devices, payments and totals.
func (l *Ledger) GetCustomer(id uuid.UUID) (*models.Customer, error) {
	customer, err := l.storage.GetCustomer(id)
	if err != nil {
		return nil, err
	}
	customer.Recompute()
	return customer, nil
}

// GetAllCustomers retrieves all customers with their totals.
func (l *Ledger) GetAllCustomers() ([]*models.Customer, error) {
	customers, err := l.storage.GetAllCustomers()
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		c.Recompute()
	}
	return customers, nil
}

// UpdateCustomer changes a customer's name and phone.
func (l *Ledger) UpdateCustomer(id uuid.UUID, name, phone string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("customer name is required")
	}

	customer, err := l.storage.GetCustomer(id)
	if err != nil {
		return nil, err
	}
	customer.Name = name
	customer.Phone = strings.TrimSpace(phone)
	customer.UpdatedAt = l.now()
	if err := l.storage.UpdateCustomer(customer); err != nil {
		return nil, err
	}
	customer.Recompute()
	return customer, nil
}

// DeleteCustomer deletes a customer together with its devices and payments.
func (l *Ledger) DeleteCustomer(id uuid.UUID) error {
	return l.storage.DeleteCustomer(id)
}

// DeviceInput carries the caller-editable fields of a device. When
// DefinitionID is set and PurchasePrice is zero, the definition's purchase
// price is used, and its name when Name is empty.
type DeviceInput struct {
	Name              string           `json:"name"`
	TotalPrice        decimal.Decimal  `json:"total_price"`
	PurchasePrice     decimal.Decimal  `json:"purchase_price"`
	InstallmentsCount int              `json:"installments_count"`
	Frequency         models.Frequency `json:"frequency"`
	DefinitionID      *uuid.UUID       `json:"definition_id,omitempty"`
}

func (in *DeviceInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("device name is required")
	}
	if in.TotalPrice.LessThanOrEqual(decimal.Zero) {
		return invalid("total price must be positive")
	}
	if in.PurchasePrice.LessThan(decimal.Zero) {
		return invalid("purchase price cannot be negative")
	}
	if in.InstallmentsCount < 1 {
		return invalid("installments count must be at least 1")
	}
	if in.Frequency == "" {
		in.Frequency = models.FrequencyMonthly
	}
	if !in.Frequency.Valid() {
		return invalid("unknown frequency %q", in.Frequency)
	}
	return nil
}

func (l *Ledger) applyDefinition(in *DeviceInput) error {
	if in.DefinitionID == nil {
		return nil
	}
	def, err := l.storage.GetDeviceDefinition(*in.DefinitionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("device definition %s does not exist", *in.DefinitionID)
		}
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = def.Name
	}
	if in.PurchasePrice.IsZero() {
		in.PurchasePrice = def.PurchasePrice
	}
	return nil
}

// AddDevice sells a device to a customer. The installment amount is the total
// price split over the installments, rounded up.
func (l *Ledger) AddDevice(customerID uuid.UUID, in DeviceInput) (*models.Device, error) {
	if err := l.applyDefinition(&in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := l.storage.GetCustomer(customerID); err != nil {
		return nil, err
	}

	device := &models.Device{
		ID:                 uuid.New(),
		CustomerID:         customerID,
		Name:               in.Name,
		TotalPrice:         in.TotalPrice,
		PurchasePrice:      in.PurchasePrice,
		InstallmentsCount:  in.InstallmentsCount,
		MonthlyInstallment: installment.MonthlyInstallment(in.TotalPrice, in.InstallmentsCount),
		Frequency:          in.Frequency,
		Payments:           []*models.Payment{},
		CreatedAt:          l.now(),
		UpdatedAt:          l.now(),
	}
	if err := l.storage.CreateDevice(device); err != nil {
		return nil, fmt.Errorf("failed to store device: %w", err)
	}
	device.Recompute()
	return device, nil
}

// GetDevice retrieves a device with its payments and balance.
func (l *Ledger) GetDevice(id uuid.UUID) (*models.Device, error) {
	device, err := l.storage.GetDevice(id)
	if err != nil {
		return nil, err
	}
	device.Recompute()
	return device, nil
}

// DeviceUpdate is a partial device edit. Nil fields keep their stored value.
// TotalPrice and Frequency are fixed at creation and may only repeat the stored value.
type DeviceUpdate struct {
	Name              *string           `json:"name,omitempty"`
	TotalPrice        *decimal.Decimal  `json:"total_price,omitempty"`
	PurchasePrice     *decimal.Decimal  `json:"purchase_price,omitempty"`
	InstallmentsCount *int              `json:"installments_count,omitempty"`
	Frequency         *models.Frequency `json:"frequency,omitempty"`
}

// UpdateDevice applies an edit to a device and recomputes its installment amount.
func (l *Ledger) UpdateDevice(id uuid.UUID, in DeviceUpdate) (*models.Device, error) {
	device, err := l.storage.GetDevice(id)
	if err != nil {
		return nil, err
	}

	if in.TotalPrice != nil && !in.TotalPrice.Equal(device.TotalPrice) {
		return nil, invalid("total price is fixed at creation")
	}
	if in.Frequency != nil && *in.Frequency != device.Frequency {
		return nil, invalid("frequency is fixed at creation")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("device name is required")
		}
		device.Name = name
	}
	if in.PurchasePrice != nil {
		if in.PurchasePrice.LessThan(decimal.Zero) {
			return nil, invalid("purchase price cannot be negative")
		}
		device.PurchasePrice = *in.PurchasePrice
	}
	if in.InstallmentsCount != nil {
		if *in.InstallmentsCount < 1 {
			return nil, invalid("installments count must be at least 1")
		}
		device.InstallmentsCount = *in.InstallmentsCount
	}
	device.MonthlyInstallment = installment.MonthlyInstallment(device.TotalPrice, device.InstallmentsCount)
	device.UpdatedAt = l.now()

	if err := l.storage.UpdateDevice(device); err != nil {
		return nil, err
	}
	device.Recompute()
	return device, nil
}

// DeleteDevice deletes a device and its payments.
func (l *Ledger) DeleteDevice(id uuid.UUID) error {
	return l.storage.DeleteDevice(id)
}

// RecordPayment records a payment against a device. A zero date means today.
// Payments beyond the remaining balance are accepted and show as a negative balance.
func (l *Ledger) RecordPayment(deviceID uuid.UUID, amount decimal.Decimal, date models.Date) (*models.Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, invalid("amount must be positive")
	}
	if date.IsZero() {
		date = l.Today()
	}

	device, err := l.storage.GetDevice(deviceID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:         uuid.New(),
		DeviceID:   device.ID,
		CustomerID: device.CustomerID,
		Amount:     amount,
		Date:       date,
		CreatedAt:  l.now(),
	}
	if err := l.storage.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}
	metrics.PaymentsRecorded.Inc()

	device.Payments = append(device.Payments, payment)
	device.Recompute()
	if device.Balance.LessThan(decimal.Zero) {
		log.Printf("Device %s is overpaid by %s after payment %s", device.ID, device.Balance.Neg().StringFixed(2), payment.ID)
	}
	return payment, nil
}

// UpdatePayment edits the amount and date of a recorded payment. A zero date keeps the current one.
func (l *Ledger) UpdatePayment(id uuid.UUID, amount decimal.Decimal, date models.Date) (*models.Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, invalid("amount must be positive")
	}

	payment, err := l.storage.GetPayment(id)
	if err != nil {
		return nil, err
	}
	payment.Amount = amount
	if !date.IsZero() {
		payment.Date = date
	}
	if err := l.storage.UpdatePayment(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// DeletePayment deletes a payment; every derived value of its device changes with it.
func (l *Ledger) DeletePayment(id uuid.UUID) error {
	return l.storage.DeletePayment(id)
}
