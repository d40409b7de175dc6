package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strconv"
	"strings"

	"kirana/models"
)

// Sender delivers account emails. The zero-config default is a logging no-op
// so the storefront works without SMTP credentials.
type Sender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	host, port, user, pass, from string
}

type logSender struct{}

func (logSender) Send(to, subject, _ string) error {
	log.Printf("[mailer] SMTP not configured; dropping %q to %s", subject, to)
	return nil
}

func (s *smtpSender) Send(to, subject, body string) error {
	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body)
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	return smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, msg)
}

// New picks SMTP when configured, the logging no-op otherwise.
func New() Sender {
	host := os.Getenv("SMTP_HOST")
	user := os.Getenv("SMTP_USER")
	if host == "" || user == "" {
		return logSender{}
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &smtpSender{host: host, port: port, user: user, pass: os.Getenv("SMTP_PASS"), from: user}
}

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func SendVerificationEmail(s Sender, to, token, name string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", baseURL(), token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Welcome to Kirana! Confirm your email within 24 hours:</p><p><a href=%q>Verify email</a></p>",
		name, link)
	return s.Send(to, "Verify your email", body)
}

func SendResetPasswordEmail(s Sender, to, token, name string) error {
	link := fmt.Sprintf("%s/api/auth/reset-password?token=%s", baseURL(), token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>A password reset was requested for your account. The link expires in 1 hour:</p><p><a href=%q>Reset password</a></p><p>If this wasn't you, ignore this email.</p>",
		name, link)
	return s.Send(to, "Reset your password", body)
}

func SendOrderConfirmationEmail(s Sender, to string, o *models.Order) error {
	var lines strings.Builder
	for _, it := range o.Items {
		label := it.ProductName
		if it.VariantColor != "" {
			label += fmt.Sprintf(" (%s, size %s)", it.VariantColor, it.Size)
		}
		fmt.Fprintf(&lines, "<li>%s x%d - %s VND</li>", label, it.Quantity, formatVND(it.Total))
	}
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Thanks for your order <b>%s</b>.</p><ul>%s</ul><p>Shipping: %s VND<br>Total: <b>%s VND</b></p><p>Track it at <a href=%q>%s</a>.</p>",
		o.CustomerInfo.FullName, o.OrderNumber, lines.String(),
		formatVND(o.ShippingFee), formatVND(o.Total),
		baseURL()+"/order-tracking/"+o.OrderNumber, o.OrderNumber)
	return s.Send(to, "Order "+o.OrderNumber+" received", body)
}

// formatVND groups digits by thousands, the way prices are written locally.
func formatVND(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func SendPasswordChangedEmail(s Sender, to, name string) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your password was just changed. If this wasn't you, reset it immediately.</p>", name)
	return s.Send(to, "Your password was changed", body)
}
