package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"sort"
	"strings"

	"github.com/your-org/forms-backend/internal/config"
)

var lowStockTemplate = template.Must(template.New("low_stock").Parse(`<h2>Low stock</h2>
<p>{{len .Items}} item(s) at or below reorder level as of {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Product</th><th>Location</th><th>Quantity</th><th>Reorder level</th></tr>
{{range .Items}}<tr><td>{{.ProductID}}</td><td>{{.Location}}</td><td>{{.Quantity}}</td><td>{{.ReorderLevel}}</td></tr>
{{end}}</table>
`))

// EmailNotifier mails low-stock alerts over SMTP
type EmailNotifier struct {
	cfg config.SMTPConfig
	to  []string
}

// NewEmailNotifier creates an SMTP notifier sending to the given recipients
func NewEmailNotifier(cfg config.SMTPConfig, to []string) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, to: to}
}

// NotifyLowStock renders the alert and sends it
func (n *EmailNotifier) NotifyLowStock(ctx context.Context, alert LowStockAlert) error {
	if n.cfg.Host == "" || len(n.to) == 0 {
		return fmt.Errorf("SMTP configuration incomplete: missing host or recipients")
	}

	msg, err := n.buildMessage(alert)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	serverAddr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	errc := make(chan error, 1)
	go func() {
		if n.cfg.UseTLS {
			errc <- n.sendWithTLS(serverAddr, auth, msg)
			return
		}
		errc <- smtp.SendMail(serverAddr, auth, n.cfg.FromEmail, n.to, msg)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send low stock email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *EmailNotifier) buildMessage(alert LowStockAlert) ([]byte, error) {
	var body bytes.Buffer
	if err := lowStockTemplate.Execute(&body, alert); err != nil {
		return nil, fmt.Errorf("failed to render low stock email: %w", err)
	}

	from := n.cfg.FromEmail
	if n.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.cfg.FromName, n.cfg.FromEmail)
	}

	headers := map[string]string{
		"From":         from,
		"To":           strings.Join(n.to, ", "),
		"Subject":      fmt.Sprintf("Low stock: %d item(s) need reordering", len(alert.Items)),
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"utf-8\"",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, headers[k])
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// sendWithTLS sends over an implicit TLS connection (port 465 style)
func (n *EmailNotifier) sendWithTLS(serverAddr string, auth smtp.Auth, msg []byte) error {
	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{ServerName: n.cfg.Host})
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(n.cfg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, addr := range n.to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", addr, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to send DATA command: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write email content: %w", err)
	}
	return writer.Close()
}
