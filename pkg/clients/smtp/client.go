package smtp

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
)

// Mail is a plain text message.
type Mail struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

// Client defines the interface for sending mail through an SMTP relay
type Client interface {
	Send(ctx context.Context, mail Mail) error
}

// sendFunc matches smtp.SendMail so tests can capture outgoing mail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type clientImpl struct {
	host string
	port string
	user string
	pass string
	send sendFunc
}

// NewClient creates a new SMTP client authenticating with PLAIN auth; the
// relay is expected to offer STARTTLS.
func NewClient(host, port, user, pass string) Client {
	return &clientImpl{host: host, port: port, user: user, pass: pass, send: smtp.SendMail}
}

func (c *clientImpl) Send(ctx context.Context, mail Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.user == "" || c.pass == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}

	msg := compose(c.user, mail)
	auth := smtp.PlainAuth("", c.user, c.pass, c.host)

	if err := c.send(net.JoinHostPort(c.host, c.port), auth, c.user, mail.To, msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	return nil
}

func compose(from string, mail Mail) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(mail.To, ", ") + "\r\n")
	if mail.ReplyTo != "" {
		b.WriteString("Reply-To: " + stripCRLF(mail.ReplyTo) + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", stripCRLF(mail.Subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(mail.Body, "\n", "\r\n"))
	b.WriteString("\r\n")

	return []byte(b.String())
}

// stripCRLF keeps visitor supplied values from injecting extra headers.
func stripCRLF(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
