package installment

import (
	"testing"

	"github.com/mcclellann/fredInstallments/pkg/models"
)

func balances(entries []models.StatementEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Balance.String()
	}
	return out
}

func TestDeviceStatement(t *testing.T) {
	tests := []struct {
		name     string
		device   *models.Device
		want     []string
		wantDate string
	}{
		{
			name:     "running balance",
			device:   newDevice(1000, 0, 5, models.FrequencyMonthly, pay{"2024-01-01", 400}, pay{"2024-02-01", 300}),
			want:     []string{"1000", "600", "300"},
			wantDate: "2024-01-01",
		},
		{
			name:     "payments out of order are replayed by date",
			device:   newDevice(1000, 0, 5, models.FrequencyMonthly, pay{"2024-02-01", 300}, pay{"2024-01-01", 400}),
			want:     []string{"1000", "600", "300"},
			wantDate: "2024-01-01",
		},
		{
			name:     "overpayment goes negative",
			device:   newDevice(500, 0, 2, models.FrequencyMonthly, pay{"2024-01-01", 400}, pay{"2024-02-01", 300}),
			want:     []string{"500", "100", "-200"},
			wantDate: "2024-01-01",
		},
		{
			name:     "no payments opens on the as-of date",
			device:   newDevice(750, 0, 3, models.FrequencyWeekly),
			want:     []string{"750"},
			wantDate: "2024-06-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := DeviceStatement(tt.device, date("2024-06-30"))
			got := balances(entries)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d entries, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Entry %d: expected balance %s, got %s", i, tt.want[i], got[i])
				}
			}
			if entries[0].Type != models.TransactionTypePurchase {
				t.Errorf("Expected first entry to be a purchase, got %s", entries[0].Type)
			}
			if !entries[0].Date.Equal(date(tt.wantDate)) {
				t.Errorf("Expected purchase dated %s, got %s", tt.wantDate, entries[0].Date)
			}
			for _, e := range entries[1:] {
				if e.Type != models.TransactionTypePayment {
					t.Errorf("Expected payment entry, got %s", e.Type)
				}
			}
		})
	}
}

func TestCustomerStatement(t *testing.T) {
	phone := newDevice(1000, 0, 5, models.FrequencyMonthly, pay{"2024-01-01", 400}, pay{"2024-03-01", 100})
	phone.Name = "Phone"
	tv := newDevice(2000, 0, 10, models.FrequencyMonthly, pay{"2024-01-01", 200}, pay{"2024-02-01", 200})
	tv.Name = "TV"
	c := newCustomer("Ali", phone, tv)
	asOf := date("2024-06-30")

	asc := CustomerStatement(c, asOf, Ascending)
	wantAsc := []struct {
		device  string
		kind    models.TransactionType
		balance string
	}{
		{"Phone", models.TransactionTypePurchase, "1000"},
		{"Phone", models.TransactionTypePayment, "600"},
		{"TV", models.TransactionTypePurchase, "2000"},
		{"TV", models.TransactionTypePayment, "1800"},
		{"TV", models.TransactionTypePayment, "1600"},
		{"Phone", models.TransactionTypePayment, "500"},
	}
	if len(asc) != len(wantAsc) {
		t.Fatalf("Expected %d entries, got %d", len(wantAsc), len(asc))
	}
	for i, w := range wantAsc {
		e := asc[i]
		if e.DeviceName != w.device || e.Type != w.kind || e.Balance.String() != w.balance {
			t.Errorf("Entry %d: expected %s/%s/%s, got %s/%s/%s", i, w.device, w.kind, w.balance, e.DeviceName, e.Type, e.Balance)
		}
	}

	desc := CustomerStatement(c, asOf, Descending)
	if !desc[0].Date.Equal(date("2024-03-01")) {
		t.Errorf("Expected newest entry first, got %s", desc[0].Date)
	}
	// Ties keep device order, then transaction order.
	if desc[2].DeviceName != "Phone" || desc[2].Type != models.TransactionTypePurchase {
		t.Errorf("Expected the phone purchase to lead the 2024-01-01 entries, got %s/%s", desc[2].DeviceName, desc[2].Type)
	}
	if desc[len(desc)-1].DeviceName != "TV" || desc[len(desc)-1].Type != models.TransactionTypePayment {
		t.Errorf("Expected the TV payment to close the 2024-01-01 entries, got %s/%s", desc[len(desc)-1].DeviceName, desc[len(desc)-1].Type)
	}
}

func TestParseSortOrder(t *testing.T) {
	if got := ParseSortOrder("asc", Descending); got != Ascending {
		t.Errorf("ParseSortOrder(asc) = %s", got)
	}
	if got := ParseSortOrder("sideways", Descending); got != Descending {
		t.Errorf("ParseSortOrder(sideways) = %s", got)
	}
}
