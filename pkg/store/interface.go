package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mcclellann/fredInstallments/pkg/models"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines the interface for database operations on customers, devices,
// payments and device definitions. Loaded devices carry their payments; derived
// fields are left for the caller to recompute.
type Storage interface {
	CreateCustomer(customer *models.Customer) error
	GetCustomer(id uuid.UUID) (*models.Customer, error)
	GetAllCustomers() ([]*models.Customer, error)
	UpdateCustomer(customer *models.Customer) error
	DeleteCustomer(id uuid.UUID) error

	CreateDevice(device *models.Device) error
	GetDevice(id uuid.UUID) (*models.Device, error)
	UpdateDevice(device *models.Device) error
	DeleteDevice(id uuid.UUID) error

	CreatePayment(payment *models.Payment) error
	GetPayment(id uuid.UUID) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	DeletePayment(id uuid.UUID) error

	CreateDeviceDefinition(def *models.DeviceDefinition) error
	GetDeviceDefinition(id uuid.UUID) (*models.DeviceDefinition, error)
	GetAllDeviceDefinitions() ([]*models.DeviceDefinition, error)
	UpdateDeviceDefinition(def *models.DeviceDefinition) error
	DeleteDeviceDefinition(id uuid.UUID) error

	Close() error
}
