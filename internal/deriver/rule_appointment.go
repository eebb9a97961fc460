package deriver

import (
	"fmt"
	"time"

	"mindspire-notifier/internal/models"
)

// AppointmentRule 规则4/5：今日已排期的预约
// 距开始不超过窗口时发出“即将开始”（高），否则发出“今日预约”（中），二者互斥
type AppointmentRule struct {
	deriver *Deriver
}

// NewAppointmentRule 创建规则4/5评估器
func NewAppointmentRule(deriver *Deriver) *AppointmentRule {
	return &AppointmentRule{
		deriver: deriver,
	}
}

// Evaluate 评估规则4/5
func (r *AppointmentRule) Evaluate(cal calendar, appointments []models.Appointment) []models.NotificationRequest {
	windowMinutes := int64(r.deriver.policy.StartingSoonWindow / time.Minute)

	var requests []models.NotificationRequest
	for _, appt := range appointments {
		if appt.Status != models.AppointmentScheduled {
			continue
		}
		start, ok := cal.combine(appt.Date, appt.Time)
		if !ok {
			continue
		}
		// 已经开始或已过去
		if start.Before(cal.now) {
			continue
		}
		day, _ := cal.parseDate(appt.Date)
		if !cal.isToday(day) {
			continue
		}

		message := fmt.Sprintf("%s with %s at %s", appt.PatientName, appt.TherapistName, appt.Time)

		// 按整分钟向下取整后比较
		diffMinutes := int64(start.Sub(cal.now) / time.Minute)
		if diffMinutes <= windowMinutes {
			requests = append(requests, models.NotificationRequest{
				Type:     models.NotificationAppointment,
				Title:    fmt.Sprintf("Appointment starting soon: %s", appt.PatientName),
				Message:  message,
				Priority: models.PriorityHigh,
			})
			continue
		}

		requests = append(requests, models.NotificationRequest{
			Type:     models.NotificationAppointment,
			Title:    fmt.Sprintf("Today's appointment: %s", appt.PatientName),
			Message:  message,
			Priority: models.PriorityMedium,
		})
	}
	return requests
}
