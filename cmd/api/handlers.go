package main

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/mcclellann/fredInstallments/pkg/cache"
	"github.com/mcclellann/fredInstallments/pkg/export"
	"github.com/mcclellann/fredInstallments/pkg/installment"
	"github.com/mcclellann/fredInstallments/pkg/ledger"
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type customerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   models.Date     `json:"date"`
}

type definitionRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type statementResponse struct {
	Customer *models.Customer          `json:"customer"`
	AsOf     models.Date               `json:"as_of"`
	Order    installment.SortOrder     `json:"order"`
	Entries  []models.StatementEntry   `json:"entries"`
	Profit   installment.ProfitSummary `json:"profit"`
}

func (s *Server) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	customers, err := s.ledger.GetAllCustomers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *Server) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decode(w, r, &req) {
		return
	}

	customer, err := s.ledger.CreateCustomer(req.Name, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "customer")
	if !ok {
		return
	}

	customer, err := s.ledger.GetCustomer(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "customer")
	if !ok {
		return
	}
	var req customerRequest
	if !decode(w, r, &req) {
		return
	}

	customer, err := s.ledger.UpdateCustomer(id, req.Name, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) deleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "customer")
	if !ok {
		return
	}

	if err := s.ledger.DeleteCustomer(id); err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) statementHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "customer")
	if !ok {
		return
	}
	asOf, ok := s.asOf(w, r)
	if !ok {
		return
	}
	order := installment.ParseSortOrder(r.URL.Query().Get("order"), installment.Descending)

	customer, entries, err := s.ledger.Statement(id, asOf, order)
	if err != nil {
		writeError(w, err)
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("customer.id", id.String()),
		attribute.Int("statement.entries", len(entries)),
	)
	writeJSON(w, http.StatusOK, statementResponse{
		Customer: customer,
		AsOf:     asOf,
		Order:    order,
		Entries:  entries,
		Profit:   installment.AggregateProfit(installment.CustomerDevices([]*models.Customer{customer})),
	})
}

func (s *Server) statementExportHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "customer")
	if !ok {
		return
	}
	asOf, ok := s.asOf(w, r)
	if !ok {
		return
	}
	order := installment.ParseSortOrder(r.URL.Query().Get("order"), installment.Descending)

	customer, entries, err := s.ledger.Statement(id, asOf, order)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.StatementFilename(customer, asOf)))
	if err := export.WriteStatement(w, customer, entries); err != nil {
		log.Printf("Error writing statement workbook for customer %s: %v", customer.ID, err)
	}
}

func (s *Server) addDeviceHandler(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseID(w, r, "customer")
	if !ok {
		return
	}
	var req ledger.DeviceInput
	if !decode(w, r, &req) {
		return
	}

	device, err := s.ledger.AddDevice(customerID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusCreated, device)
}

func (s *Server) getDeviceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "device")
	if !ok {
		return
	}

	device, err := s.ledger.GetDevice(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) updateDeviceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "device")
	if !ok {
		return
	}
	var req ledger.DeviceUpdate
	if !decode(w, r, &req) {
		return
	}

	device, err := s.ledger.UpdateDevice(id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) deleteDeviceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "device")
	if !ok {
		return
	}

	if err := s.ledger.DeleteDevice(id); err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deviceSummaryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "device")
	if !ok {
		return
	}
	asOf, ok := s.asOf(w, r)
	if !ok {
		return
	}

	summary, err := s.ledger.DeviceSummary(id, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("device.id", id.String()),
		attribute.String("device.due_state", string(summary.Due.State)),
	)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := parseID(w, r, "device")
	if !ok {
		return
	}
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}

	payment, err := s.ledger.RecordPayment(deviceID, req.Amount, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) updatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "payment")
	if !ok {
		return
	}
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}

	payment, err := s.ledger.UpdatePayment(id, req.Amount, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) deletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "payment")
	if !ok {
		return
	}

	if err := s.ledger.DeletePayment(id); err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listDefinitionsHandler(w http.ResponseWriter, r *http.Request) {
	defs, err := s.ledger.GetDeviceDefinitions()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) createDefinitionHandler(w http.ResponseWriter, r *http.Request) {
	var req definitionRequest
	if !decode(w, r, &req) {
		return
	}

	def, err := s.ledger.CreateDeviceDefinition(req.Name, req.Description, req.PurchasePrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) updateDefinitionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "device definition")
	if !ok {
		return
	}
	var req definitionRequest
	if !decode(w, r, &req) {
		return
	}

	def, err := s.ledger.UpdateDeviceDefinition(id, req.Name, req.Description, req.PurchasePrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) deleteDefinitionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "device definition")
	if !ok {
		return
	}

	if err := s.ledger.DeleteDeviceDefinition(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	asOf, ok := s.asOf(w, r)
	if !ok {
		return
	}
	limit := s.cfg.UpcomingLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ctx := r.Context()
	key := s.dashboards.Key(ctx, asOf, limit)
	dashboard, err := cache.GetOrSet(s.cache, ctx, key, s.cfg.CacheTTL, func() (*installment.Dashboard, error) {
		return s.ledger.Dashboard(asOf, limit)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("dashboard.customers", dashboard.Status.TotalCustomers),
		attribute.Int("dashboard.overdue_customers", dashboard.Status.CustomersWithOverdue),
	)
	writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) customersExportHandler(w http.ResponseWriter, r *http.Request) {
	customers, err := s.ledger.GetAllCustomers()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CustomersFilename(s.ledger.Today())))
	if err := export.WriteCustomers(w, customers); err != nil {
		log.Printf("Error writing customers workbook: %v", err)
	}
}
