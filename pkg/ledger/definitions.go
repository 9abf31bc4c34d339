package ledger

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
)

// CreateDeviceDefinition adds a named device template with a default purchase price.
func (l *Ledger) CreateDeviceDefinition(name, description string, purchasePrice decimal.Decimal) (*models.DeviceDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("definition name is required")
	}
	if purchasePrice.LessThan(decimal.Zero) {
		return nil, invalid("purchase price cannot be negative")
	}

	def := &models.DeviceDefinition{
		ID:            uuid.New(),
		Name:          name,
		Description:   strings.TrimSpace(description),
		PurchasePrice: purchasePrice,
		CreatedAt:     l.now(),
	}
	if err := l.storage.CreateDeviceDefinition(def); err != nil {
		return nil, err
	}
	return def, nil
}

func (l *Ledger) GetDeviceDefinitions() ([]*models.DeviceDefinition, error) {
	return l.storage.GetAllDeviceDefinitions()
}

// UpdateDeviceDefinition edits a template. Devices already created from it are unchanged.
func (l *Ledger) UpdateDeviceDefinition(id uuid.UUID, name, description string, purchasePrice decimal.Decimal) (*models.DeviceDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("definition name is required")
	}
	if purchasePrice.LessThan(decimal.Zero) {
		return nil, invalid("purchase price cannot be negative")
	}

	def, err := l.storage.GetDeviceDefinition(id)
	if err != nil {
		return nil, err
	}
	def.Name = name
	def.Description = strings.TrimSpace(description)
	def.PurchasePrice = purchasePrice
	if err := l.storage.UpdateDeviceDefinition(def); err != nil {
		return nil, err
	}
	return def, nil
}

func (l *Ledger) DeleteDeviceDefinition(id uuid.UUID) error {
	return l.storage.DeleteDeviceDefinition(id)
}
