package deriver

import (
	"time"

	"mindspire-notifier/internal/models"

	"go.uber.org/zap"
)

// Policy 规则时间窗口
type Policy struct {
	DueSoonDays        int           // 即将到期窗口（天，含今天与第 N 天），默认 3
	StartingSoonWindow time.Duration // 即将开始窗口，默认 60 分钟
}

// DefaultPolicy 默认窗口
func DefaultPolicy() Policy {
	return Policy{
		DueSoonDays:        3,
		StartingSoonWindow: 60 * time.Minute,
	}
}

// Deriver 通知推导器
// 无状态：每次 Derive 只依赖传入的快照、开关和 now，不做任何 I/O
type Deriver struct {
	policy Policy
	logger *zap.Logger

	// 规则评估器
	overduePayment *OverduePaymentRule // 规则1：账单逾期
	paymentDueSoon *PaymentDueSoonRule // 规则2：账单即将到期
	lowStock       *LowStockRule       // 规则3：库存不足
	appointment    *AppointmentRule    // 规则4/5：预约即将开始 / 今日预约
}

// New 创建推导器，logger 为 nil 时不输出日志
func New(policy Policy, logger *zap.Logger) *Deriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.DueSoonDays < 0 {
		policy.DueSoonDays = 0
	}
	if policy.StartingSoonWindow < 0 {
		policy.StartingSoonWindow = 0
	}

	d := &Deriver{
		policy: policy,
		logger: logger,
	}

	d.overduePayment = NewOverduePaymentRule(d)
	d.paymentDueSoon = NewPaymentDueSoonRule(d)
	d.lowStock = NewLowStockRule(d)
	d.appointment = NewAppointmentRule(d)

	return d
}

// Policy 返回当前窗口配置
func (d *Deriver) Policy() Policy {
	return d.policy
}

// Derive 按默认窗口推导通知请求
func Derive(snapshot models.Snapshot, settings models.NotificationSettings, now time.Time) []models.NotificationRequest {
	return New(DefaultPolicy(), nil).Derive(snapshot, settings, now)
}

// Derive 评估所有已启用的规则，返回应当存在的通知请求
// 规则之间相互独立，不提前退出；同一签名的请求只保留一条
func (d *Deriver) Derive(snapshot models.Snapshot, settings models.NotificationSettings, now time.Time) []models.NotificationRequest {
	cal := newCalendar(now)
	var requests []models.NotificationRequest

	if settings.PaymentReminders {
		requests = append(requests, d.overduePayment.Evaluate(cal, snapshot.Invoices)...)
		requests = append(requests, d.paymentDueSoon.Evaluate(cal, snapshot.Invoices)...)
	}

	if settings.LowStockAlerts {
		requests = append(requests, d.lowStock.Evaluate(snapshot.Inventory)...)
	}

	if settings.AppointmentReminders {
		requests = append(requests, d.appointment.Evaluate(cal, snapshot.Appointments)...)
	}

	return uniqueRequests(requests)
}

// uniqueRequests 按签名去重，保留首次出现的顺序
func uniqueRequests(requests []models.NotificationRequest) []models.NotificationRequest {
	if len(requests) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(requests))
	out := make([]models.NotificationRequest, 0, len(requests))
	for _, req := range requests {
		sig := req.Signature()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, req)
	}
	return out
}
