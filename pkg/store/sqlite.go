package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/fredInstallments/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the tables if they don't already exist and adds columns
// introduced after the first release. Decimals are TEXT so no precision is lost;
// payment dates are TEXT (YYYY-MM-DD) because they carry no time component.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		name TEXT NOT NULL,
		total_price TEXT NOT NULL,
		installments_count INTEGER NOT NULL,
		monthly_installment TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(customer_id) REFERENCES customers(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(device_id) REFERENCES devices(id)
	);
	CREATE INDEX IF NOT EXISTS idx_devices_customer ON devices(customer_id);
	CREATE INDEX IF NOT EXISTS idx_payments_device ON payments(device_id);
	CREATE TABLE IF NOT EXISTS device_definitions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		purchase_price TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	// Cost basis and cadence arrived after the devices table existed.
	columns := []string{
		"purchase_price TEXT NOT NULL DEFAULT '0'",
		"frequency TEXT NOT NULL DEFAULT 'monthly'",
	}

	for _, col := range columns {
		_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE devices ADD COLUMN %s", col))
		if err != nil && !isDuplicateColumnError(err) {
			return fmt.Errorf("failed to add column %s: %w", col, err)
		}
	}

	return nil
}

// isDuplicateColumnError checks if the error indicates a duplicate column.
func isDuplicateColumnError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "duplicate column name")
}

// checkAffected turns a zero-row update or delete into ErrNotFound.
func checkAffected(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return nil
}

// CreateCustomer inserts a new customer into the database.
func (s *SQLiteStore) CreateCustomer(customer *models.Customer) error {
	_, err := s.db.Exec(
		`INSERT INTO customers (id, name, phone, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		customer.ID.String(), customer.Name, customer.Phone, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetCustomer retrieves a customer with its devices and their payments.
func (s *SQLiteStore) GetCustomer(id uuid.UUID) (*models.Customer, error) {
	row := s.db.QueryRow(`SELECT id, name, phone, created_at, updated_at FROM customers WHERE id = ?`, id.String())
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	devices, err := s.queryDevices(`WHERE customer_id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	payments, err := s.queryPayments(`WHERE customer_id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	attachPayments(devices, payments)
	customer.Devices = devices
	return customer, nil
}

// GetAllCustomers retrieves every customer with devices and payments using one
// query per table.
func (s *SQLiteStore) GetAllCustomers() ([]*models.Customer, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, created_at, updated_at FROM customers ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	byID := make(map[uuid.UUID]*models.Customer)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customer.Devices = []*models.Device{}
		customers = append(customers, customer)
		byID[customer.ID] = customer
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	devices, err := s.queryDevices("")
	if err != nil {
		return nil, err
	}
	payments, err := s.queryPayments("")
	if err != nil {
		return nil, err
	}
	attachPayments(devices, payments)
	for _, d := range devices {
		if c, ok := byID[d.CustomerID]; ok {
			c.Devices = append(c.Devices, d)
		}
	}
	return customers, nil
}

// UpdateCustomer updates the name and phone of a customer.
func (s *SQLiteStore) UpdateCustomer(customer *models.Customer) error {
	result, err := s.db.Exec(
		`UPDATE customers SET name = ?, phone = ?, updated_at = ? WHERE id = ?`,
		customer.Name, customer.Phone, customer.UpdatedAt, customer.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return checkAffected(result, "customer")
}

// DeleteCustomer removes a customer, its devices and their payments within a transaction.
func (s *SQLiteStore) DeleteCustomer(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM payments WHERE device_id IN (SELECT id FROM devices WHERE customer_id = ?)`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete associated payments: %w", err)
	}
	_, err = tx.Exec(`DELETE FROM devices WHERE customer_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete associated devices: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM customers WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if err := checkAffected(result, "customer"); err != nil {
		return err
	}

	return tx.Commit()
}

// CreateDevice inserts a new device into the database.
func (s *SQLiteStore) CreateDevice(device *models.Device) error {
	_, err := s.db.Exec(
		`INSERT INTO devices (id, customer_id, name, total_price, purchase_price, installments_count, monthly_installment, frequency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID.String(), device.CustomerID.String(), device.Name, device.TotalPrice, device.PurchasePrice, device.InstallmentsCount, device.MonthlyInstallment, string(device.Frequency), device.CreatedAt, device.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetDevice retrieves a device with its payments.
func (s *SQLiteStore) GetDevice(id uuid.UUID) (*models.Device, error) {
	devices, err := s.queryDevices(`WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("device %w", ErrNotFound)
	}
	payments, err := s.queryPayments(`WHERE device_id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	attachPayments(devices, payments)
	return devices[0], nil
}

// UpdateDevice updates an existing device. Payments are untouched.
func (s *SQLiteStore) UpdateDevice(device *models.Device) error {
	result, err := s.db.Exec(
		`UPDATE devices SET name = ?, total_price = ?, purchase_price = ?, installments_count = ?, monthly_installment = ?, frequency = ?, updated_at = ? WHERE id = ?`,
		device.Name, device.TotalPrice, device.PurchasePrice, device.InstallmentsCount, device.MonthlyInstallment, string(device.Frequency), device.UpdatedAt, device.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	return checkAffected(result, "device")
}

// DeleteDevice removes a device and its payments within a transaction.
func (s *SQLiteStore) DeleteDevice(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM payments WHERE device_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete associated payments: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM devices WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if err := checkAffected(result, "device"); err != nil {
		return err
	}

	return tx.Commit()
}

const deviceColumns = `id, customer_id, name, total_price, purchase_price, installments_count, monthly_installment, frequency, created_at, updated_at`

func (s *SQLiteStore) queryDevices(where string, args ...interface{}) ([]*models.Device, error) {
	rows, err := s.db.Query(`SELECT `+deviceColumns+` FROM devices `+where+` ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		var device models.Device
		var idStr, customerIDStr, frequency string
		if err := rows.Scan(&idStr, &customerIDStr, &device.Name, &device.TotalPrice, &device.PurchasePrice, &device.InstallmentsCount, &device.MonthlyInstallment, &frequency, &device.CreatedAt, &device.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		device.ID = uuid.MustParse(idStr)
		device.CustomerID = uuid.MustParse(customerIDStr)
		device.Frequency = models.Frequency(frequency)
		device.Payments = []*models.Payment{}
		devices = append(devices, &device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for devices: %w", err)
	}
	return devices, nil
}

// CreatePayment inserts a new payment into the database.
func (s *SQLiteStore) CreatePayment(payment *models.Payment) error {
	_, err := s.db.Exec(
		`INSERT INTO payments (id, device_id, customer_id, amount, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID.String(), payment.DeviceID.String(), payment.CustomerID.String(), payment.Amount, payment.Date, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by its ID.
func (s *SQLiteStore) GetPayment(id uuid.UUID) (*models.Payment, error) {
	payments, err := s.queryPayments(`WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("payment %w", ErrNotFound)
	}
	return payments[0], nil
}

// UpdatePayment changes the amount and date of a payment.
func (s *SQLiteStore) UpdatePayment(payment *models.Payment) error {
	result, err := s.db.Exec(
		`UPDATE payments SET amount = ?, date = ? WHERE id = ?`,
		payment.Amount, payment.Date, payment.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return checkAffected(result, "payment")
}

// DeletePayment removes a payment.
func (s *SQLiteStore) DeletePayment(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM payments WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return checkAffected(result, "payment")
}

func (s *SQLiteStore) queryPayments(where string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := s.db.Query(`SELECT id, device_id, customer_id, amount, date, created_at FROM payments `+where+` ORDER BY date ASC, created_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		var idStr, deviceIDStr, customerIDStr string
		if err := rows.Scan(&idStr, &deviceIDStr, &customerIDStr, &payment.Amount, &payment.Date, &payment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payment.ID = uuid.MustParse(idStr)
		payment.DeviceID = uuid.MustParse(deviceIDStr)
		payment.CustomerID = uuid.MustParse(customerIDStr)
		payments = append(payments, &payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for payments: %w", err)
	}
	return payments, nil
}

// CreateDeviceDefinition inserts a new device definition.
func (s *SQLiteStore) CreateDeviceDefinition(def *models.DeviceDefinition) error {
	_, err := s.db.Exec(
		`INSERT INTO device_definitions (id, name, description, purchase_price, created_at) VALUES (?, ?, ?, ?, ?)`,
		def.ID.String(), def.Name, def.Description, def.PurchasePrice, def.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create device definition: %w", err)
	}
	return nil
}

// GetDeviceDefinition retrieves a device definition by its ID.
func (s *SQLiteStore) GetDeviceDefinition(id uuid.UUID) (*models.DeviceDefinition, error) {
	row := s.db.QueryRow(`SELECT id, name, description, purchase_price, created_at FROM device_definitions WHERE id = ?`, id.String())
	def, err := scanDeviceDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("device definition %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get device definition: %w", err)
	}
	return def, nil
}

// GetAllDeviceDefinitions retrieves every device definition ordered by name.
func (s *SQLiteStore) GetAllDeviceDefinitions() ([]*models.DeviceDefinition, error) {
	rows, err := s.db.Query(`SELECT id, name, description, purchase_price, created_at FROM device_definitions ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get device definitions: %w", err)
	}
	defer rows.Close()

	defs := []*models.DeviceDefinition{}
	for rows.Next() {
		def, err := scanDeviceDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device definition row: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return defs, nil
}

// UpdateDeviceDefinition updates name, description and purchase price.
func (s *SQLiteStore) UpdateDeviceDefinition(def *models.DeviceDefinition) error {
	result, err := s.db.Exec(
		`UPDATE device_definitions SET name = ?, description = ?, purchase_price = ? WHERE id = ?`,
		def.Name, def.Description, def.PurchasePrice, def.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update device definition: %w", err)
	}
	return checkAffected(result, "device definition")
}

// DeleteDeviceDefinition removes a device definition. Devices created from it keep their values.
func (s *SQLiteStore) DeleteDeviceDefinition(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM device_definitions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete device definition: %w", err)
	}
	return checkAffected(result, "device definition")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var customer models.Customer
	var idStr string
	if err := row.Scan(&idStr, &customer.Name, &customer.Phone, &customer.CreatedAt, &customer.UpdatedAt); err != nil {
		return nil, err
	}
	customer.ID = uuid.MustParse(idStr)
	return &customer, nil
}

func scanDeviceDefinition(row rowScanner) (*models.DeviceDefinition, error) {
	var def models.DeviceDefinition
	var idStr string
	if err := row.Scan(&idStr, &def.Name, &def.Description, &def.PurchasePrice, &def.CreatedAt); err != nil {
		return nil, err
	}
	def.ID = uuid.MustParse(idStr)
	return &def, nil
}

// attachPayments distributes payments onto their devices, keeping query order.
func attachPayments(devices []*models.Device, payments []*models.Payment) {
	byID := make(map[uuid.UUID]*models.Device, len(devices))
	for _, d := range devices {
		byID[d.ID] = d
	}
	for _, p := range payments {
		if d, ok := byID[p.DeviceID]; ok {
			d.Payments = append(d.Payments, p)
		}
	}
}
