package pkg

import (
	"crypto/tls"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers html mail through a single SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
	return d.DialAndSend(msg)
}

func ResetCodeHTML(username, code string, ttl time.Duration) string {
	return fmt.Sprintf(`<p>Hello, %s.</p><p>Your password reset code is <b style="font-size:18px;">%s</b>.</p><p>It is valid for %d minutes.</p>`,
		username, code, int(ttl.Minutes()))
}
