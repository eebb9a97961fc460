package models

// Snapshot 一次推导所使用的三个集合快照（只读）
type Snapshot struct {
	Appointments []Appointment   `json:"appointments"`
	Invoices     []Invoice       `json:"invoices"`
	Inventory    []InventoryItem `json:"inventory"`
}
