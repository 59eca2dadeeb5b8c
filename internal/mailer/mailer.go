package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/SergeiKhy/shrinkurl/internal/config"
	"go.uber.org/zap"
)

// Kind вид письма
type Kind string

const (
	KindVerify Kind = "verify"
	KindReset  Kind = "reset"
)

// Message письмо со ссылкой, содержащей одноразовый токен
type Message struct {
	Kind  Kind
	To    string
	Name  string
	Token string
}

// Mailer отправляет письма подтверждения email и сброса пароля
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New возвращает SMTP-отправителя, а если SMTP не настроен - отправителя в лог
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(cfg.Domain, logger)
}

// Link адрес фронтенда, который примет токен
func Link(domain string, kind Kind, token string) string {
	path := "verifyEmail"
	if kind == KindReset {
		path = "resetPassword"
	}
	return strings.TrimRight(domain, "/") + "/" + path + "?token=" + token
}

func subject(kind Kind) string {
	if kind == KindReset {
		return "Reset Your ShrinkURL Password"
	}
	return "Verify Your ShrinkURL Account"
}

var bodyTemplate = template.Must(template.New("email").Parse(`<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f0f0f0;color:#333;">
  <div style="max-width:600px;margin:20px auto;background-color:#fff;border-radius:8px;">
    <div style="background-color:#2c3e50;color:#fff;padding:20px;text-align:center;border-radius:8px 8px 0 0;">
      <h1 style="margin:0;font-size:28px;">ShrinkURL</h1>
    </div>
    <div style="padding:30px 20px;">
      <p>Hello {{.Name}},</p>
      {{if .Reset}}
      <p>We received a request to reset your ShrinkURL account password. If you didn't make this request, please ignore this email.</p>
      <p>Please click the button below to reset your password:</p>
      {{else}}
      <p>Welcome to ShrinkURL! To start shortening your links and tracking their performance, please verify your email address.</p>
      <p>Please click the button below to verify your email address:</p>
      {{end}}
      <p style="text-align:center;">
        <a href="{{.Link}}" style="display:inline-block;padding:12px 24px;background-color:#3498db;color:#fff;text-decoration:none;font-weight:bold;border-radius:4px;">{{if .Reset}}Reset Password{{else}}Verify Email{{end}}</a>
      </p>
      <p style="font-size:14px;color:#7f8c8d;text-align:center;">Or copy and paste this link:</p>
      <p style="font-size:14px;color:#3498db;word-break:break-all;text-align:center;">{{.Link}}</p>
      <p style="font-size:14px;color:#7f8c8d;text-align:center;">This link will expire in 24 hours for security reasons.</p>
    </div>
  </div>
</body>`))

// Render собирает HTML письма
func Render(domain string, msg Message) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Name  string
		Link  string
		Reset bool
	}{
		Name:  msg.Name,
		Link:  Link(domain, msg.Kind, msg.Token),
		Reset: msg.Kind == KindReset,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", msg.Kind, err)
	}
	return buf.String(), nil
}

// SMTPMailer отправка через SMTP. Порт 465 - неявный TLS, остальные - STARTTLS, если сервер его поддерживает.
type SMTPMailer struct {
	cfg  config.MailConfig
	auth smtp.Auth
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := Render(m.cfg.Domain, msg)
	if err != nil {
		return err
	}

	raw := buildMessage(m.cfg.From, msg.To, subject(msg.Kind), body)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	conn, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp: %w", err)
	}
	// Отмена контекста обрывает зависшую сессию
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Close()

	if m.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(m.tlsConfig()); err != nil {
				return fmt.Errorf("smtp starttls failed: %w", err)
			}
		}
	}

	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// dial на 465 порту сразу поднимает TLS, на остальных TLS включается через STARTTLS
func (m *SMTPMailer) dial(ctx context.Context, addr string) (net.Conn, error) {
	if m.cfg.Port == 465 {
		dialer := &tls.Dialer{Config: m.tlsConfig()}
		return dialer.DialContext(ctx, "tcp", addr)
	}
	var dialer net.Dialer
	return dialer.DialContext(ctx, "tcp", addr)
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// LogMailer пишет ссылку из письма в лог. Для разработки без SMTP.
type LogMailer struct {
	domain string
	logger *zap.Logger
}

func NewLogMailer(domain string, logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{domain: domain, logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("Email not sent, SMTP is not configured",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("subject", subject(msg.Kind)),
		zap.String("link", Link(m.domain, msg.Kind, msg.Token)),
	)
	return nil
}
