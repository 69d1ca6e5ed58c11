package report

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"os"
	"path/filepath"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

type sendCall struct {
	addr string
	auth smtp.Auth
	mail *email.Email
}

func recordingMailer(config SmtpConfig, errs ...error) (Mailer, *[]sendCall) {
	var calls []sendCall
	mailer := NewMailer(config)
	mailer.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
		calls = append(calls, sendCall{addr: addr, auth: auth, mail: mail})
		if len(errs) == 0 {
			return nil
		}
		err := errs[0]
		errs = errs[1:]
		return err
	}
	return mailer, &calls
}

var testSmtp = SmtpConfig{
	Server:       "smtp.test",
	Port:         587,
	EmailAddress: "crawler@acme.test",
	Password:     "secret",
	To:           []string{"analyst@acme.test"},
}

func TestMailerSend(t *testing.T) {
	attachment := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(attachment, []byte("{}"), 0600))

	mailer, calls := recordingMailer(testSmtp)
	err := mailer.Send(context.Background(), sampleReport(), attachment)
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	require.Equal(t, "smtp.test:587", call.addr)
	require.NotNil(t, call.auth)
	require.Equal(t, []string{"analyst@acme.test"}, call.mail.To)
	require.Equal(t, "chcrawler <crawler@acme.test>", call.mail.From)
	require.Contains(t, call.mail.Subject, "a1b2c3d4")
	require.Len(t, call.mail.Attachments, 1)
	require.Equal(t, "results.json", call.mail.Attachments[0].Filename)
	require.True(t, bytes.Contains(call.mail.Text, []byte(`1 companies found for "Acme"`)))
	require.True(t, bytes.Contains(call.mail.Text, []byte(`"Globex" failed`)))
}

func TestMailerFallsBackWithoutAuth(t *testing.T) {
	mailer, calls := recordingMailer(testSmtp, errors.New("smtp: server doesn't support AUTH"))
	err := mailer.Send(context.Background(), sampleReport())
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	require.Nil(t, (*calls)[1].auth)
}

func TestMailerFailure(t *testing.T) {
	mailer, calls := recordingMailer(testSmtp, errors.New("connection refused"))
	err := mailer.Send(context.Background(), sampleReport())
	require.ErrorIs(t, err, ErrOutput)
	require.Len(t, *calls, 1)

	err = mailer.Send(context.Background(), sampleReport(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.ErrorIs(t, err, ErrOutput)
	require.Len(t, *calls, 1)
}

func TestSmtpConfigEnabled(t *testing.T) {
	require.True(t, testSmtp.Enabled())
	require.False(t, SmtpConfig{Server: "smtp.test"}.Enabled())
	require.False(t, SmtpConfig{To: []string{"a@b.c"}}.Enabled())
}
