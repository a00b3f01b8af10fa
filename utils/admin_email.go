package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// AdminEmail tells a new console user how to sign in.
type AdminEmail struct {
	To       string
	Name     string
	Role     string
	LoginURL string
}

// SendAdminWelcomeEmail mails sign-in instructions to a newly created admin.
// Without SMTP settings the mail is only logged.
func SendAdminWelcomeEmail(cfg SMTPConfig, log *logrus.Logger, m AdminEmail) error {
	if !cfg.configured() {
		log.WithFields(logrus.Fields{"to": MaskEmail(m.To), "role": m.Role}).Info("[MOCK EMAIL] admin welcome")
		return nil
	}
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	if err := smtp.SendMail(addr, auth, cfg.Username, []string{m.To}, buildAdminWelcome(cfg, m)); err != nil {
		log.WithError(err).WithField("to", MaskEmail(m.To)).Error("send admin welcome email")
		return err
	}
	return nil
}

func buildAdminWelcome(cfg SMTPConfig, m AdminEmail) []byte {
	safe := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), "\r\n", " ")
	}
	name, role, link := safe(m.Name), safe(m.Role), safe(m.LoginURL)
	if name == "" {
		name = m.To
	}
	if link != "" && !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		link = "https://" + strings.TrimLeft(link, "/")
	}

	boundary := "----=_ADMIN_WELCOME_BOUNDARY"
	plainBody := fmt.Sprintf(
		"Hi %s,\n\n"+
			"An inventory console account with the %s role was created for you.\n"+
			"Sign in with this email address at:\n%s\n",
		name, role, link,
	)
	htmlBody := fmt.Sprintf(`<!doctype html>
<html>
<body style="background:#f5f7fb;font-family:Arial, Helvetica, sans-serif;color:#222;">
  <div style="max-width:640px;margin:20px auto;background:#fff;border:1px solid #e6eef6;padding:24px;border-radius:8px;">
    <p>Hi %s,</p>
    <p>An inventory console account with the <strong>%s</strong> role was created for you.</p>
    <a href="%s" style="display:inline-block;padding:12px 20px;background:#0b74ff;color:#fff;text-decoration:none;border-radius:6px;">Sign in</a>
  </div>
</body>
</html>`,
		htmlEscape(name), htmlEscape(role), htmlEscape(link),
	)

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s <%s>\r\n", cfg.FromName, cfg.Username)
	fmt.Fprintf(&sb, "To: %s\r\n", m.To)
	sb.WriteString("Subject: Your inventory console account\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)
	fmt.Fprintf(&sb, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, plainBody)
	fmt.Fprintf(&sb, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, htmlBody)
	fmt.Fprintf(&sb, "--%s--\r\n", boundary)
	return []byte(sb.String())
}
