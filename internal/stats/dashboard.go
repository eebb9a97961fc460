package stats

import (
	"strings"
	"time"

	"mindspire-notifier/internal/models"
)

// DashboardStats 面板实时统计
type DashboardStats struct {
	TodayAppointments     int     `json:"todayAppointments"`
	CompletedAppointments int     `json:"completedAppointments"`
	UpcomingAppointments  int     `json:"upcomingAppointments"`
	TotalRevenue          float64 `json:"totalRevenue"`
	TodayRevenue          float64 `json:"todayRevenue"`
	PendingInvoices       int     `json:"pendingInvoices"`
	OverdueInvoices       int     `json:"overdueInvoices"`
	OverdueAmount         float64 `json:"overdueAmount"`
	LowStockItems         int     `json:"lowStockItems"`
}

// Compute 根据快照计算统计
// 逾期与库存不足的判定与通知规则一致
func Compute(snapshot models.Snapshot, now time.Time) DashboardStats {
	today := models.DayOf(now)
	y, m, d := now.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var s DashboardStats

	for _, appt := range snapshot.Appointments {
		if appt.Date != today {
			continue
		}
		s.TodayAppointments++
		switch appt.Status {
		case models.AppointmentCompleted:
			s.CompletedAppointments++
		case models.AppointmentScheduled:
			s.UpcomingAppointments++
		}
	}

	for _, inv := range snapshot.Invoices {
		switch inv.Status {
		case models.InvoicePaid:
			s.TotalRevenue += inv.Total
			if inv.PaidDate != "" && strings.HasPrefix(inv.PaidDate, today) {
				s.TodayRevenue += inv.Total
			}
			continue
		case models.InvoicePending:
			s.PendingInvoices++
		}

		due, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(inv.DueDate), now.Location())
		if err != nil {
			continue
		}
		if due.Before(todayStart) {
			s.OverdueInvoices++
			s.OverdueAmount += inv.Total
		}
	}

	for _, item := range snapshot.Inventory {
		if item.CurrentStock.Valid && item.MinStock.Valid && item.CurrentStock.Value <= item.MinStock.Value {
			s.LowStockItems++
		}
	}

	return s
}
