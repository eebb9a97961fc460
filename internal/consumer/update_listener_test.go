package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestUpdateListener_HandleMessage(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	_, c := setupTestConsumer(t, &now)
	listener := NewUpdateListener(c, zap.NewNop())

	tests := []struct {
		name      string
		payload   string
		wantErr   bool
		triggered bool
	}{
		{name: "watched key", payload: `{"key":"mindspire_invoices"}`, triggered: true},
		{name: "settings key", payload: `{"key":"mindspire_settings"}`, triggered: true},
		{name: "other key", payload: `{"key":"mindspire_patients"}`},
		{name: "invalid json", payload: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 清空触发通道
			select {
			case <-c.trigger:
			default:
			}

			err := listener.HandleMessage("mindspire/storage-update", []byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.triggered {
				assert.Len(t, c.trigger, 1)
			} else {
				assert.Len(t, c.trigger, 0)
			}
		})
	}
}
