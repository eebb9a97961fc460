package dispatcher

import (
	"context"
	"fmt"
	"time"

	"mindspire-notifier/internal/metrics"
	"mindspire-notifier/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 外发渠道
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// WebhookPayload 外发网关请求体
type WebhookPayload struct {
	Channel      string              `json:"channel"`
	ClinicName   string              `json:"clinicName,omitempty"`
	Notification models.Notification `json:"notification"`
}

// WebhookDispatcher 将新通知转发到邮件/短信网关
type WebhookDispatcher struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookDispatcher 创建外发客户端，url 为空时不外发
func NewWebhookDispatcher(url string, timeout time.Duration, logger *zap.Logger) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookDispatcher{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// Enabled 是否配置了网关地址
func (d *WebhookDispatcher) Enabled() bool {
	return d.url != ""
}

// Channels 按设置返回启用的渠道
func Channels(settings models.NotificationSettings) []string {
	var channels []string
	if settings.EmailNotifications {
		channels = append(channels, ChannelEmail)
	}
	if settings.SMSNotifications {
		channels = append(channels, ChannelSMS)
	}
	return channels
}

// Dispatch 按启用的渠道逐个外发
// 某个渠道失败不影响其他渠道，返回最后一个错误
func (d *WebhookDispatcher) Dispatch(ctx context.Context, settings models.Settings, notification models.Notification) error {
	if !d.Enabled() {
		return nil
	}

	var lastErr error
	for _, channel := range Channels(settings.Notifications) {
		payload := WebhookPayload{
			Channel:      channel,
			ClinicName:   settings.Clinic.Name,
			Notification: notification,
		}

		if err := d.send(ctx, payload); err != nil {
			metrics.DispatchCount.WithLabelValues(channel, "error").Inc()
			d.logger.Warn("Failed to dispatch notification",
				zap.String("channel", channel),
				zap.String("notification_id", notification.ID),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		metrics.DispatchCount.WithLabelValues(channel, "success").Inc()
		d.logger.Debug("Notification dispatched",
			zap.String("channel", channel),
			zap.String("notification_id", notification.ID),
		)
	}
	return lastErr
}

func (d *WebhookDispatcher) send(ctx context.Context, payload WebhookPayload) error {
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(d.url)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
