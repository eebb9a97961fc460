package deriver

import (
	"fmt"

	"mindspire-notifier/internal/models"
)

// PaymentDueSoonRule 规则2：未支付且到期日在 [今天, 今天+N天] 内的账单
type PaymentDueSoonRule struct {
	deriver *Deriver
}

// NewPaymentDueSoonRule 创建规则2评估器
func NewPaymentDueSoonRule(deriver *Deriver) *PaymentDueSoonRule {
	return &PaymentDueSoonRule{
		deriver: deriver,
	}
}

// Evaluate 评估规则2
func (r *PaymentDueSoonRule) Evaluate(cal calendar, invoices []models.Invoice) []models.NotificationRequest {
	limit := cal.addDays(r.deriver.policy.DueSoonDays)

	var requests []models.NotificationRequest
	for _, inv := range invoices {
		if inv.Status == models.InvoicePaid {
			continue
		}
		due, ok := cal.parseDate(inv.DueDate)
		if !ok {
			continue
		}
		if due.Before(cal.today) || due.After(limit) {
			continue
		}
		requests = append(requests, models.NotificationRequest{
			Type:     models.NotificationPayment,
			Title:    fmt.Sprintf("Invoice due soon: %s", inv.DisplayName()),
			Message:  fmt.Sprintf("Invoice %s is due on %s. Total %s.", inv.ID, inv.DueDate, formatAmount(inv.Total)),
			Priority: models.PriorityMedium,
		})
	}
	return requests
}
