package deriver

import (
	"fmt"

	"mindspire-notifier/internal/models"

	"go.uber.org/zap"
)

// OverduePaymentRule 规则1：未支付且到期日早于今天的账单
type OverduePaymentRule struct {
	deriver *Deriver
}

// NewOverduePaymentRule 创建规则1评估器
func NewOverduePaymentRule(deriver *Deriver) *OverduePaymentRule {
	return &OverduePaymentRule{
		deriver: deriver,
	}
}

// Evaluate 评估规则1
func (r *OverduePaymentRule) Evaluate(cal calendar, invoices []models.Invoice) []models.NotificationRequest {
	var requests []models.NotificationRequest
	for _, inv := range invoices {
		if inv.Status == models.InvoicePaid {
			continue
		}
		due, ok := cal.parseDate(inv.DueDate)
		if !ok {
			r.deriver.logger.Debug("Skip invoice without valid due date",
				zap.String("invoice_id", inv.ID),
				zap.String("due_date", inv.DueDate),
			)
			continue
		}
		// 到期日当天属于“即将到期”，不算逾期
		if !due.Before(cal.today) {
			continue
		}
		requests = append(requests, models.NotificationRequest{
			Type:     models.NotificationPayment,
			Title:    fmt.Sprintf("Invoice overdue: %s", inv.DisplayName()),
			Message:  fmt.Sprintf("Invoice %s is overdue since %s. Total %s.", inv.ID, inv.DueDate, formatAmount(inv.Total)),
			Priority: models.PriorityHigh,
		})
	}
	return requests
}
