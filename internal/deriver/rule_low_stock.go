package deriver

import (
	"fmt"

	"mindspire-notifier/internal/models"

	"go.uber.org/zap"
)

// LowStockRule 规则3：当前库存不高于最低库存
type LowStockRule struct {
	deriver *Deriver
}

// NewLowStockRule 创建规则3评估器
func NewLowStockRule(deriver *Deriver) *LowStockRule {
	return &LowStockRule{
		deriver: deriver,
	}
}

// Evaluate 评估规则3
func (r *LowStockRule) Evaluate(items []models.InventoryItem) []models.NotificationRequest {
	var requests []models.NotificationRequest
	for _, item := range items {
		// 两个字段都必须是数值，否则该条目不参与本规则
		if !item.CurrentStock.Valid || !item.MinStock.Valid {
			r.deriver.logger.Debug("Skip inventory item with non-numeric stock",
				zap.String("item_id", item.ID),
				zap.String("name", item.Name),
			)
			continue
		}
		if item.CurrentStock.Value > item.MinStock.Value {
			continue
		}

		unit := ""
		if item.Unit != "" {
			unit = " " + item.Unit
		}
		requests = append(requests, models.NotificationRequest{
			Type:     models.NotificationInventory,
			Title:    fmt.Sprintf("%s low stock", item.Name),
			Message:  fmt.Sprintf("%s is at %s%s (min %s).", item.Name, item.CurrentStock, unit, item.MinStock),
			Priority: models.PriorityHigh,
		})
	}
	return requests
}
