package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"

	"commentwatch/internal/components/assert"
	"commentwatch/internal/components/telemetry"

	"github.com/jordan-wright/email"
)

const report_email_notify = "email.notify"

type SmtpOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type sendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

func defaultSend(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

// Email sends the plain text rendering of a message through smtp.
type Email struct {
	opts SmtpOptions
	send sendFunc
	tel  telemetry.API
}

func NewEmail(opts SmtpOptions, tel telemetry.API) Email {
	assert.NotEmptyStr(opts.Host)
	assert.NotNil(tel)
	if opts.From == "" {
		opts.From = opts.Username
	}
	return Email{
		opts: opts,
		send: defaultSend,
		tel:  telemetry.NewScopedAPI("notify", tel),
	}
}

var markdownLink = regexp.MustCompile(`\[([^\]]*)\]\(<?([^)>]*)>?\)`)

// plainText strips the lark markdown used in message bodies.
func plainText(body string) string {
	body = markdownLink.ReplaceAllString(body, "$1 ($2)")
	return strings.ReplaceAll(body, "**", "")
}

func (e Email) Notify(ctx context.Context, msg Message) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("commentwatch <%s>", e.opts.From)
	mail.To = e.opts.To
	mail.Subject = msg.Title
	mail.Text = []byte(plainText(msg.Body))

	addr := fmt.Sprintf("%s:%d", e.opts.Host, e.opts.Port)
	var auth smtp.Auth
	if e.opts.Username != "" {
		auth = smtp.PlainAuth("", e.opts.Username, e.opts.Password, e.opts.Host)
	}

	err := e.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		e.tel.ReportBroken(report_email_notify, err, addr)
		return fmt.Errorf("email: %w", err)
	}
	return nil
}
