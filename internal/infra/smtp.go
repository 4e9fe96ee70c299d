package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending reports with attachments.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configured reports whether an SMTP host was provided.
func (m *Mailer) Configured() bool { return m.host != "" }

// SendReporteCierre mails the close report of fecha with the PDF attached.
func (m *Mailer) SendReporteCierre(to, fecha string, pdf []byte) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = "Cierre de caja " + fecha
	e.Text = []byte("Se adjunta el reporte de cierre de caja del " + fecha + ".")

	if _, err := e.Attach(bytes.NewReader(pdf), "cierre_"+fecha+".pdf", "application/pdf"); err != nil {
		return fmt.Errorf("mailer: attach PDF: %w", err)
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
