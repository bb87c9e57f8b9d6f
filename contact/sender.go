package contact

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// DefaultSendDelay is the latency of the simulated sender.
const DefaultSendDelay = time.Second

// Simulated pretends to deliver a message after Delay. It always succeeds
// unless ctx is cancelled first.
type Simulated struct {
	Delay time.Duration
}

func (s Simulated) Send(ctx context.Context, _ Message) error {
	d := s.Delay
	if d <= 0 {
		d = DefaultSendDelay
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MessageStore persists accepted messages.
type MessageStore interface {
	SaveContactMessage(ctx context.Context, msg Message) error
}

// Recorder stores every message and then hands it to Next, if set.
type Recorder struct {
	Store MessageStore
	Next  Sender
}

func (r Recorder) Send(ctx context.Context, msg Message) error {
	if err := r.Store.SaveContactMessage(ctx, msg); err != nil {
		return fmt.Errorf("contact: record message: %w", err)
	}
	if r.Next == nil {
		return nil
	}
	return r.Next.Send(ctx, msg)
}

// SMTPSender mails each message to the site owner.
type SMTPSender struct {
	Addr     string // host:port
	Username string
	Password string
	From     string
	To       string
}

func (s SMTPSender) Send(ctx context.Context, msg Message) error {
	host, _, _ := strings.Cut(s.Addr, ":")
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	body := s.compose(msg)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.Addr, auth, s.From, []string{s.To}, body)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("contact: smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s SMTPSender) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", s.To)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", headerSafe(msg.Email))
	fmt.Fprintf(&b, "Subject: [contact] %s\r\n", headerSafe(msg.Subject))
	fmt.Fprintf(&b, "Message-ID: <%s@folio>\r\n", msg.ID)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "From: %s <%s>\r\n", msg.Name, msg.Email)
	if msg.RemoteIP != "" {
		fmt.Fprintf(&b, "IP: %s\r\n", msg.RemoteIP)
	}
	fmt.Fprintf(&b, "Sent: %s\r\n\r\n", msg.CreatedAt.Format(time.RFC1123Z))
	body := strings.ReplaceAll(msg.FormData.Message, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
