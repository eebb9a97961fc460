package deriver

import (
	"testing"
	"time"

	"mindspire-notifier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNow() time.Time {
	return time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
}

func allEnabled() models.NotificationSettings {
	return models.DefaultSettings().Notifications
}

func TestDerive_EndToEndOverdueInvoice(t *testing.T) {
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: "2024-03-05", Total: 120.5},
		},
	}

	requests := Derive(snapshot, models.NotificationSettings{PaymentReminders: true}, testNow())

	require.Len(t, requests, 1)
	assert.Equal(t, models.NotificationRequest{
		Type:     models.NotificationPayment,
		Title:    "Invoice overdue: Jane Doe",
		Message:  "Invoice inv_1 is overdue since 2024-03-05. Total 120.50.",
		Priority: models.PriorityHigh,
	}, requests[0])
}

func TestDerive_OverdueDueSoonPartition(t *testing.T) {
	tests := []struct {
		name      string
		dueDate   string
		wantTitle string // 空表示两条规则都不触发
	}{
		{"yesterday is overdue", "2024-03-09", "Invoice overdue: Jane Doe"},
		{"today is due soon", "2024-03-10", "Invoice due soon: Jane Doe"},
		{"today plus three is due soon", "2024-03-13", "Invoice due soon: Jane Doe"},
		{"today plus four is neither", "2024-03-14", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := models.Snapshot{
				Invoices: []models.Invoice{
					{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: tt.dueDate, Total: 10},
				},
			}

			requests := Derive(snapshot, allEnabled(), testNow())

			if tt.wantTitle == "" {
				assert.Empty(t, requests)
				return
			}
			require.Len(t, requests, 1)
			assert.Equal(t, tt.wantTitle, requests[0].Title)
		})
	}
}

func TestDerive_DueSoonMessage(t *testing.T) {
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_2", PatientName: "Ali Khan", Status: models.InvoiceOverdue, DueDate: "2024-03-12", Total: 80},
		},
	}

	requests := Derive(snapshot, allEnabled(), testNow())

	require.Len(t, requests, 1)
	assert.Equal(t, "Invoice inv_2 is due on 2024-03-12. Total 80.00.", requests[0].Message)
	assert.Equal(t, models.PriorityMedium, requests[0].Priority)
}

func TestDerive_PaidInvoiceIgnored(t *testing.T) {
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoicePaid, DueDate: "2024-03-01", Total: 10},
			{ID: "inv_2", PatientName: "Jane Doe", Status: models.InvoicePaid, DueDate: "2024-03-11", Total: 10},
		},
	}

	assert.Empty(t, Derive(snapshot, allEnabled(), testNow()))
}

func TestDerive_InvoiceFallsBackToPatientID(t *testing.T) {
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_3", PatientID: "patient_42", Status: models.InvoicePending, DueDate: "2024-03-01", Total: 5},
		},
	}

	requests := Derive(snapshot, allEnabled(), testNow())

	require.Len(t, requests, 1)
	assert.Equal(t, "Invoice overdue: patient_42", requests[0].Title)
}

func TestDerive_MalformedInvoiceSkipped(t *testing.T) {
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_bad", PatientName: "No Date", Status: models.InvoicePending},
			{ID: "inv_bad2", PatientName: "Bad Date", Status: models.InvoicePending, DueDate: "10/03/2024"},
			{ID: "inv_ok", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: "2024-03-01", Total: 1},
		},
	}

	requests := Derive(snapshot, allEnabled(), testNow())

	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Message, "inv_ok")
}

func TestDerive_LowStockBoundary(t *testing.T) {
	snapshot := models.Snapshot{
		Inventory: []models.InventoryItem{
			{Name: "Gauze", Unit: "packs", CurrentStock: models.NewQuantity(5), MinStock: models.NewQuantity(5)},
			{Name: "Tape", CurrentStock: models.NewQuantity(6), MinStock: models.NewQuantity(5)},
		},
	}

	requests := Derive(snapshot, allEnabled(), testNow())

	require.Len(t, requests, 1)
	assert.Equal(t, models.NotificationRequest{
		Type:     models.NotificationInventory,
		Title:    "Gauze low stock",
		Message:  "Gauze is at 5 packs (min 5).",
		Priority: models.PriorityHigh,
	}, requests[0])
}

func TestDerive_LowStockWithoutUnit(t *testing.T) {
	snapshot := models.Snapshot{
		Inventory: []models.InventoryItem{
			{Name: "Ice Pack", CurrentStock: models.NewQuantity(0.5), MinStock: models.NewQuantity(2)},
		},
	}

	requests := Derive(snapshot, allEnabled(), testNow())

	require.Len(t, requests, 1)
	assert.Equal(t, "Ice Pack is at 0.5 (min 2).", requests[0].Message)
}

func TestDerive_LowStockNonNumericSkipped(t *testing.T) {
	snapshot := models.Snapshot{
		Inventory: []models.InventoryItem{
			{Name: "Unknown", CurrentStock: models.Quantity{}, MinStock: models.NewQuantity(5)},
			{Name: "Unset Min", CurrentStock: models.NewQuantity(1)},
		},
	}

	assert.Empty(t, Derive(snapshot, allEnabled(), testNow()))
}

func TestDerive_AppointmentSoonVersusLater(t *testing.T) {
	now := testNow()
	tests := []struct {
		name      string
		date      string
		clock     string
		wantTitle string
		wantPrio  models.Priority
	}{
		{"45 minutes ahead", "2024-03-10", "10:45", "Appointment starting soon: Sam Lee", models.PriorityHigh},
		{"exactly 60 minutes ahead", "2024-03-10", "11:00", "Appointment starting soon: Sam Lee", models.PriorityHigh},
		{"120 minutes ahead", "2024-03-10", "12:00", "Today's appointment: Sam Lee", models.PriorityMedium},
		{"yesterday", "2024-03-09", "11:00", "", ""},
		{"earlier today", "2024-03-10", "09:00", "", ""},
		{"tomorrow soon after midnight", "2024-03-11", "00:30", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := models.Snapshot{
				Appointments: []models.Appointment{
					{ID: "appt_1", PatientName: "Sam Lee", TherapistName: "Dr. Noor", Date: tt.date, Time: tt.clock, Status: models.AppointmentScheduled},
				},
			}

			requests := Derive(snapshot, allEnabled(), now)

			if tt.wantTitle == "" {
				assert.Empty(t, requests)
				return
			}
			require.Len(t, requests, 1)
			assert.Equal(t, tt.wantTitle, requests[0].Title)
			assert.Equal(t, tt.wantPrio, requests[0].Priority)
			assert.Equal(t, "Sam Lee with Dr. Noor at "+tt.clock, requests[0].Message)
		})
	}
}

func TestDerive_AppointmentFloorsMinutes(t *testing.T) {
	// 60 分 30 秒向下取整为 60 分钟，仍属于“即将开始”
	now := time.Date(2024, 3, 10, 9, 59, 30, 0, time.UTC)
	snapshot := models.Snapshot{
		Appointments: []models.Appointment{
			{PatientName: "Sam Lee", TherapistName: "Dr. Noor", Date: "2024-03-10", Time: "11:00", Status: models.AppointmentScheduled},
		},
	}

	requests := Derive(snapshot, allEnabled(), now)

	require.Len(t, requests, 1)
	assert.Equal(t, "Appointment starting soon: Sam Lee", requests[0].Title)
}

func TestDerive_AppointmentStatusAndMissingFields(t *testing.T) {
	snapshot := models.Snapshot{
		Appointments: []models.Appointment{
			{PatientName: "Done", Date: "2024-03-10", Time: "10:30", Status: models.AppointmentCompleted},
			{PatientName: "Cancelled", Date: "2024-03-10", Time: "10:30", Status: models.AppointmentCancelled},
			{PatientName: "No Time", Date: "2024-03-10", Status: models.AppointmentScheduled},
			{PatientName: "No Date", Time: "10:30", Status: models.AppointmentScheduled},
			{PatientName: "Bad Time", Date: "2024-03-10", Time: "half past ten", Status: models.AppointmentScheduled},
		},
	}

	assert.Empty(t, Derive(snapshot, allEnabled(), testNow()))
}

func TestDerive_ToggleGating(t *testing.T) {
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: "2024-03-01", Total: 1},
			{ID: "inv_2", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: "2024-03-11", Total: 1},
		},
		Inventory: []models.InventoryItem{
			{Name: "Gauze", CurrentStock: models.NewQuantity(1), MinStock: models.NewQuantity(5)},
		},
		Appointments: []models.Appointment{
			{PatientName: "Sam Lee", TherapistName: "Dr. Noor", Date: "2024-03-10", Time: "10:30", Status: models.AppointmentScheduled},
		},
	}

	settings := allEnabled()
	settings.PaymentReminders = false
	requests := Derive(snapshot, settings, testNow())
	for _, req := range requests {
		assert.NotEqual(t, models.NotificationPayment, req.Type)
	}
	assert.Len(t, requests, 2)

	assert.Empty(t, Derive(snapshot, models.NotificationSettings{}, testNow()))

	requests = Derive(snapshot, models.NotificationSettings{LowStockAlerts: true}, testNow())
	require.Len(t, requests, 1)
	assert.Equal(t, models.NotificationInventory, requests[0].Type)
}

func TestDerive_IdenticalSignaturesCollapse(t *testing.T) {
	// 两张不同账单产生完全相同的 (type, title, message)
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: "2024-03-01", Total: 10},
			{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoiceOverdue, DueDate: "2024-03-01", Total: 10},
		},
	}

	requests := Derive(snapshot, allEnabled(), testNow())

	assert.Len(t, requests, 1)
}

func TestDerive_OrderIndependent(t *testing.T) {
	a := models.Invoice{ID: "inv_a", PatientName: "A", Status: models.InvoicePending, DueDate: "2024-03-01", Total: 1}
	b := models.Invoice{ID: "inv_b", PatientName: "B", Status: models.InvoicePending, DueDate: "2024-03-12", Total: 2}

	first := Derive(models.Snapshot{Invoices: []models.Invoice{a, b}}, allEnabled(), testNow())
	second := Derive(models.Snapshot{Invoices: []models.Invoice{b, a}}, allEnabled(), testNow())

	assert.ElementsMatch(t, first, second)
}

func TestDeriver_CustomPolicy(t *testing.T) {
	d := New(Policy{DueSoonDays: 7, StartingSoonWindow: 2 * time.Hour}, nil)
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: "2024-03-16", Total: 1},
		},
		Appointments: []models.Appointment{
			{PatientName: "Sam Lee", TherapistName: "Dr. Noor", Date: "2024-03-10", Time: "11:30", Status: models.AppointmentScheduled},
		},
	}

	requests := d.Derive(snapshot, allEnabled(), testNow())

	require.Len(t, requests, 2)
	assert.Equal(t, "Invoice due soon: Jane Doe", requests[0].Title)
	assert.Equal(t, "Appointment starting soon: Sam Lee", requests[1].Title)
}

func TestDeriver_NegativePolicyClamped(t *testing.T) {
	d := New(Policy{DueSoonDays: -1, StartingSoonWindow: -time.Minute}, nil)

	assert.Equal(t, 0, d.Policy().DueSoonDays)
	assert.Equal(t, time.Duration(0), d.Policy().StartingSoonWindow)
}

func TestDerive_UsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	// UTC 仍是 3 月 9 日，本地已是 3 月 10 日
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, loc)
	snapshot := models.Snapshot{
		Invoices: []models.Invoice{
			{ID: "inv_1", PatientName: "Jane Doe", Status: models.InvoicePending, DueDate: "2024-03-09", Total: 1},
		},
	}

	requests := Derive(snapshot, allEnabled(), now)

	require.Len(t, requests, 1)
	assert.Equal(t, "Invoice overdue: Jane Doe", requests[0].Title)
}
