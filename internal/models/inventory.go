package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// InventoryItem 库存记录（对应 mindspire_inventory 集合中的元素）
type InventoryItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category,omitempty"`
	CurrentStock Quantity `json:"currentStock"`
	MinStock     Quantity `json:"minStock"`
	MaxStock     Quantity `json:"maxStock"`
	Unit         string   `json:"unit,omitempty"`
	Supplier     string   `json:"supplier,omitempty"`
}

// Quantity 库存数量
// 面板写入的数据不保证类型，只有 JSON number 才视为有效数值；
// 字符串、null 或缺失都记为无效，解码本身不会报错
type Quantity struct {
	Value float64
	Valid bool
}

// NewQuantity 创建有效数量
func NewQuantity(v float64) Quantity {
	return Quantity{Value: v, Valid: true}
}

// UnmarshalJSON 实现 json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// true/false、对象、数组等非数值
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		return nil
	}
	q.Value = v
	q.Valid = true
	return nil
}

// MarshalJSON 实现 json.Marshaler
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(q.Value, 'f', -1, 64)), nil
}

// String 与面板显示一致：整数不带小数位
func (q Quantity) String() string {
	return strconv.FormatFloat(q.Value, 'f', -1, 64)
}
