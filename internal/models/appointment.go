package models

// 预约状态
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no-show"
)

// Appointment 预约记录（对应 mindspire_appointments 集合中的元素）
type Appointment struct {
	ID            string `json:"id"`
	PatientID     string `json:"patientId"`
	PatientName   string `json:"patientName"`
	TherapistID   string `json:"therapistId"`
	TherapistName string `json:"therapistName"`
	Date          string `json:"date"`     // YYYY-MM-DD
	Time          string `json:"time"`     // HH:MM
	Duration      int    `json:"duration"` // 分钟
	Type          string `json:"type"`     // assessment, therapy, followup, consultation
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
}
