package infra

import (
	"fmt"
	"net/smtp"
	"strings"

	"stockpos/internal/config"
	"stockpos/internal/dto"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for operational e-mails.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		send:     func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
}

// Enabled is false when no SMTP host is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// SendStockAlert mails the list of products at or below their threshold.
func (m *Mailer) SendStockAlert(to string, alert dto.StockAlert) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer: SMTP not configured")
	}
	e := BuildStockAlertEmail(m.user, to, alert)
	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return m.send(e, m.addr, auth)
}

// BuildStockAlertEmail renders the alert as a plain-text and HTML message.
func BuildStockAlertEmail(from, to string, alert dto.StockAlert) *email.Email {
	var text, html strings.Builder
	fmt.Fprintf(&text, "%d product(s) are running low (%s):\n\n", len(alert.Products), alert.At)
	html.WriteString("<table><tr><th>Product</th><th>Stock</th><th>Threshold</th></tr>")
	for _, p := range alert.Products {
		fmt.Fprintf(&text, "- %s: %d left (threshold %d)\n", p.Name, p.Stock, p.LowStockThreshold)
		fmt.Fprintf(&html, "<tr><td>%s</td><td>%d</td><td>%d</td></tr>", p.Name, p.Stock, p.LowStockThreshold)
	}
	html.WriteString("</table>")

	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Low stock: %d product(s)", len(alert.Products))
	e.Text = []byte(text.String())
	e.HTML = []byte(html.String())
	return e
}
