package notify

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/softrh/softrh/internal/dashboard"
	"github.com/softrh/softrh/internal/hr"
)

var ErrNoRecipient = errors.New("no recipient address")

// Mailer sends the alert digest over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	sender gomail.Sender // overrides dialer when set
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// WithSender returns a copy of m that hands messages to s instead of
// dialing the SMTP server.
func (m *Mailer) WithSender(s gomail.Sender) *Mailer {
	cp := *m
	cp.sender = s
	return &cp
}

// DigestSubject is the subject line of an alert digest.
func DigestSubject(company string, n int, now time.Time) string {
	return fmt.Sprintf("[%s] %d alerta(s) de RH em %s", company, n, now.Format("02/01/2006"))
}

func digestBody(company string, alerts []dashboard.Alert, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(company))
	fmt.Fprintf(&b, "<p>Alertas gerados em %s.</p>\n", now.Format("02/01/2006 15:04"))
	if len(alerts) == 0 {
		b.WriteString("<p>Nenhum alerta importante.</p>\n")
		return b.String()
	}
	b.WriteString("<ul>\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "<li><strong>[%s] %s</strong>: %s</li>\n",
			html.EscapeString(string(a.Level)), html.EscapeString(a.Title), html.EscapeString(a.Description))
	}
	b.WriteString("</ul>\n")
	return b.String()
}

// SendAlerts mails alerts to cfg's contact address.
func (m *Mailer) SendAlerts(cfg hr.Configuration, alerts []dashboard.Alert, now time.Time) error {
	to := strings.TrimSpace(cfg.ContactEmail)
	if to == "" {
		return ErrNoRecipient
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", DigestSubject(cfg.CompanyName, len(alerts), now))
	msg.SetBody("text/html", digestBody(cfg.CompanyName, alerts, now))

	var err error
	if m.sender != nil {
		err = gomail.Send(m.sender, msg)
	} else {
		err = m.dialer.DialAndSend(msg)
	}
	if err != nil {
		return fmt.Errorf("sending alert digest to %s: %w", to, err)
	}
	return nil
}
