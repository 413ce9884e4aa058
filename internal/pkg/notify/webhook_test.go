package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNotifyLowStock(t *testing.T) {
	var got LowStockAlert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	alert := LowStockAlert{
		Source:      "forms-backend",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Items:       []LowStockItem{{ProductID: 3, Location: "WH-A", Quantity: 2, ReorderLevel: 5}},
	}
	if err := n.NotifyLowStock(context.Background(), alert); err != nil {
		t.Fatalf("NotifyLowStock() error = %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Location != "WH-A" || got.Items[0].Quantity != 2 {
		t.Errorf("received = %+v", got)
	}
}

func TestNotifyLowStockServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	if err := n.NotifyLowStock(context.Background(), LowStockAlert{}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}
