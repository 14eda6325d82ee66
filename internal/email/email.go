package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"tldr/internal/format"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	To       []string

	send   SendFunc
	logger *zap.Logger
}

func NewSender(host, port, user, password, from string, to []string, logger *zap.Logger) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
		send:     smtp.SendMail,
		logger:   logger.Named("email"),
	}
}

const page = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
	body {
		font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
		line-height: 1.6;
		color: #333;
		max-width: 800px;
		margin: 0 auto;
		padding: 20px;
	}
	h1, h2, h3 { color: #2c3e50; }
	a { color: #3498db; text-decoration: none; }
	code { background-color: #f8f9fa; padding: 2px 4px; border-radius: 3px; }
	.meta { color: #6c757d; font-size: 0.9em; }
</style>
</head>
<body>
<p class="meta">%s</p>
%s
</body>
</html>`

// SendSummary mails a Markdown summary rendered as HTML.
func (s *Sender) SendSummary(subject, meta, markdownBody string) error {
	if len(s.To) == 0 {
		s.logger.Info("No email recipients configured, skipping email send")
		return nil
	}

	var msg strings.Builder
	// Header order is fixed so messages are reproducible.
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(s.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, page, strings.ReplaceAll(meta, "\n", "<br>"), format.MarkdownToHTML(markdownBody))

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}

	if err := s.send(s.Host+":"+s.Port, auth, s.From, s.To, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent successfully", zap.Strings("recipients", s.To))
	return nil
}
