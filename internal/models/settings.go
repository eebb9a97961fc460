package models

import (
	"time"
	_ "time/tzdata" // 容器镜像里不一定有 zoneinfo
)

// NotificationSettings 通知开关（对应 Settings.notifications）
type NotificationSettings struct {
	EmailNotifications   bool `json:"emailNotifications"`
	SMSNotifications     bool `json:"smsNotifications"`
	AppointmentReminders bool `json:"appointmentReminders"`
	PaymentReminders     bool `json:"paymentReminders"`
	LowStockAlerts       bool `json:"lowStockAlerts"`
	SystemUpdates        bool `json:"systemUpdates"`
}

// Settings 面板设置中本服务关心的部分
type Settings struct {
	Clinic struct {
		Name string `json:"name"`
	} `json:"clinic"`
	Notifications NotificationSettings `json:"notifications"`
	Schedule      struct {
		TimeZone string `json:"timeZone"`
	} `json:"schedule"`
}

// DefaultSettings 与面板默认设置保持一致
func DefaultSettings() Settings {
	var s Settings
	s.Clinic.Name = "Mindspire"
	s.Notifications = NotificationSettings{
		EmailNotifications:   true,
		SMSNotifications:     false,
		AppointmentReminders: true,
		PaymentReminders:     true,
		LowStockAlerts:       true,
		SystemUpdates:        true,
	}
	return s
}

// Local 把时间换算到诊所时区；未设置或无法识别的时区原样返回
func (s Settings) Local(t time.Time) time.Time {
	if s.Schedule.TimeZone == "" {
		return t
	}
	loc, err := time.LoadLocation(s.Schedule.TimeZone)
	if err != nil {
		return t
	}
	return t.In(loc)
}
