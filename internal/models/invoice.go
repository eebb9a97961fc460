package models

// 账单状态
const (
	InvoicePending   = "pending"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Invoice 账单记录（对应 mindspire_invoices 集合中的元素）
type Invoice struct {
	ID            string  `json:"id"`
	PatientID     string  `json:"patientId"`
	PatientName   string  `json:"patientName"`
	AppointmentID string  `json:"appointmentId,omitempty"`
	Amount        float64 `json:"amount"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
	Status        string  `json:"status"`
	DueDate       string  `json:"dueDate"` // YYYY-MM-DD
	PaidDate      string  `json:"paidDate,omitempty"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
}

// DisplayName 账单对应的患者显示名（患者姓名为空时使用患者ID）
func (i Invoice) DisplayName() string {
	if i.PatientName != "" {
		return i.PatientName
	}
	return i.PatientID
}
