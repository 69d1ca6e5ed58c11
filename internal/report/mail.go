package report

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"chcrawler/internal/crawler"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("chcrawler.internal.report")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Enabled is true when there is a server to send through and someone to
// send to.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.To) > 0
}

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

func sendMail(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

// Mailer sends the written report files to the configured recipients.
type Mailer struct {
	config SmtpConfig
	send   sendFunc
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{config: config, send: sendMail}
}

func (m Mailer) Send(ctx context.Context, report crawler.Report, attachments ...string) error {
	_, span := tracer.Start(ctx, "report:mail")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("chcrawler <%s>", m.config.EmailAddress)
	mail.To = m.config.To
	mail.Subject = fmt.Sprintf("Crawl results %s", report.RunID)
	mail.Text = []byte(mailBody(report))

	for _, path := range attachments {
		_, err := mail.AttachFile(path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach file")
			return outputError("attach "+path, err)
		}
	}

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := m.send(mail, addr, smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return outputError("send mail", err)
	}
	return nil
}

func mailBody(report crawler.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished in %s with %d records.\n\n", report.RunID, FormatElapsed(report.Elapsed), report.TotalMatches())
	for _, outcome := range report.Outcomes {
		if outcome.Failure != "" {
			fmt.Fprintf(&b, "- %q failed: %s\n", outcome.Keywords, outcome.Failure)
			continue
		}
		fmt.Fprintf(&b, "- %d companies found for %q\n", len(outcome.Matches), outcome.Keywords)
	}
	return b.String()
}
