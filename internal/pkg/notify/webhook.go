// Package notify posts low-stock alerts to an HTTP webhook.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// LowStockItem is one stock record at or below its reorder level
type LowStockItem struct {
	ProductID    uint   `json:"product_id"`
	Location     string `json:"location"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorder_level"`
}

// LowStockAlert is the webhook payload
type LowStockAlert struct {
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
	Items       []LowStockItem `json:"items"`
}

// Notifier delivers low-stock alerts
type Notifier interface {
	NotifyLowStock(ctx context.Context, alert LowStockAlert) error
}

// WebhookNotifier is a resty-backed Notifier
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
}

// NewWebhookNotifier builds a notifier posting JSON to url
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &WebhookNotifier{
		httpClient: restyClient,
		url:        url,
	}
}

// NotifyLowStock posts the alert. Any non-2xx response is an error.
func (n *WebhookNotifier) NotifyLowStock(ctx context.Context, alert LowStockAlert) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("send low stock alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("low stock webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
