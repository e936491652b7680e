package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

// Message is one outgoing HTML email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string

	// send is smtp.SendMail outside of tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailerFromEnv() *SMTPMailer {
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		fiberlog.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", sender)
	}
	return &SMTPMailer{
		Host:     env.GetEnv("SMTP_HOST", ""),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   sender,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Host == "" {
		return errors.New("SMTP_HOST is not configured")
	}
	if msg.To == "" {
		return errors.New("recipient is required")
	}

	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}

	err := send(addr, auth, m.Sender, []string{msg.To}, buildMessage(m.Sender, msg))
	if err != nil {
		fiberlog.Errorf("[Mail] SMTP send error: %v", err)
		return err
	}
	fiberlog.Infof("[Mail] Email sent to %s via %s", msg.To, addr)
	return nil
}

func buildMessage(sender string, msg Message) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, msg.To, msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			msg.Body,
	)
}
