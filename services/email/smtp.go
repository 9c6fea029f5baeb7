package emailsvc

import (
	"fmt"
	"io"
	"net/mail"

	gomail "gopkg.in/mail.v2"

	"github.com/trezcool/darasa/core"
)

// smtpService delivers mail over plain SMTP with mandatory STARTTLS. It is
// the default production backend when no Sendgrid key is configured.
type smtpService struct {
	dialer           *gomail.Dialer
	defaultFromEmail mail.Address
	subjPrefix       string
	logger           core.Logger
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) *smtpService {
	d := gomail.NewDialer(conf.SMTP.Host, conf.SMTP.Port, conf.SMTP.Username, conf.SMTP.Password)
	d.StartTLSPolicy = gomail.MandatoryStartTLS
	return &smtpService{
		dialer:           d,
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		logger:           logger,
	}
}

// SendMessages delivers synchronously over one connection so a scheduled job
// knows its batch left the building before it returns.
func (svc smtpService) SendMessages(messages ...*core.EmailMessage) {
	sent := 0
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
			continue
		}
		if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
			continue
		}
		if err := svc.dialer.DialAndSend(svc.prepare(msg)); err != nil {
			svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.Subject, err), err)
			continue
		}
		sent++
	}
	svc.logger.Info(fmt.Sprintf("smtp: sent %d/%d message(s)", sent, len(messages)))
}

func (svc smtpService) prepare(msg *core.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", svc.defaultFromEmail.Address, svc.defaultFromEmail.Name)
	m.SetHeader("To", svc.formatAddresses(msg.To)...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", svc.formatAddresses(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", svc.formatAddresses(msg.Bcc)...)
	}
	m.SetHeader("Subject", svc.subjPrefix+msg.Subject)

	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}

	for _, at := range msg.Attachments {
		at := at
		m.Attach(at.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(at.Content.Bytes())
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {at.ContentType}}),
		)
	}
	return m
}

func (svc smtpService) formatAddresses(addrs []mail.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}
