package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

func (c SMTPConfig) configured() bool {
	return c.Host != "" && c.Port != "" && c.Username != "" && c.Password != ""
}

// BookingEmail is what goes into a booking confirmation.
type BookingEmail struct {
	To          string
	GuestName   string
	BookingCode string
	RoomType    string
	RoomNumber  string
	CheckIn     string
	CheckOut    string
	Total       string
	Lines       []string
}

// SendBookingConfirmationEmail sends a plain text + HTML confirmation. When
// SMTP is not configured the mail is only logged.
func SendBookingConfirmationEmail(cfg SMTPConfig, log *logrus.Logger, m BookingEmail) error {
	if !cfg.configured() {
		log.WithFields(logrus.Fields{
			"to":      MaskEmail(m.To),
			"booking": m.BookingCode,
			"room":    m.RoomNumber,
		}).Info("[MOCK EMAIL] booking confirmation")
		return nil
	}

	msg := buildConfirmationMessage(cfg, m)
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	if err := smtp.SendMail(addr, auth, cfg.Username, []string{m.To}, msg); err != nil {
		log.WithError(err).WithField("to", MaskEmail(m.To)).Error("send confirmation email")
		return err
	}

	log.WithFields(logrus.Fields{"to": MaskEmail(m.To), "booking": m.BookingCode}).Info("confirmation email sent")
	return nil
}

func buildConfirmationMessage(cfg SMTPConfig, m BookingEmail) []byte {
	safe := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), "\r\n", " ")
	}
	guest := safe(m.GuestName)
	code := safe(m.BookingCode)
	room := safe(m.RoomType)
	if n := safe(m.RoomNumber); n != "" {
		room = fmt.Sprintf("%s (%s)", room, n)
	}

	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.Username)
	subject := fmt.Sprintf("Booking Confirmation - %s", code)
	boundary := "----=_HOTEL_BOOKING_BOUNDARY"

	var plainLines, htmlLines strings.Builder
	for _, l := range m.Lines {
		plainLines.WriteString(" - " + safe(l) + "\n")
		htmlLines.WriteString("<li>" + htmlEscape(safe(l)) + "</li>")
	}

	plainBody := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Thank you for booking with us! Here are your booking details:\n\n"+
			"Booking Reference: %s\n"+
			"Room: %s\n"+
			"Check-In: %s\n"+
			"Check-Out: %s\n"+
			"Charges:\n%s"+
			"Total: %s\n\n"+
			"Best regards,\n%s",
		guest, code, room, safe(m.CheckIn), safe(m.CheckOut), plainLines.String(), safe(m.Total), cfg.FromName,
	)

	htmlBody := fmt.Sprintf(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Booking Confirmation</title></head>
<body style="background:#f5f7fb;font-family:Arial, Helvetica, sans-serif;color:#222;">
  <div style="max-width:700px;margin:20px auto;background:#fff;border:1px solid #e6eef6;padding:24px;border-radius:8px;">
    <h2>Booking Confirmation</h2>
    <p>Dear %s,</p>
    <p><b>Booking Reference:</b> %s</p>
    <p><b>Room:</b> %s</p>
    <p><b>Check-In:</b> %s</p>
    <p><b>Check-Out:</b> %s</p>
    <ul>%s</ul>
    <p><b>Total:</b> %s</p>
    <p>Best regards,<br>%s</p>
  </div>
</body>
</html>`,
		htmlEscape(guest), htmlEscape(code), htmlEscape(room), htmlEscape(safe(m.CheckIn)),
		htmlEscape(safe(m.CheckOut)), htmlLines.String(), htmlEscape(safe(m.Total)), htmlEscape(cfg.FromName),
	)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", m.To))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(plainBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(htmlBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(sb.String())
}

// minimal html escaper for the small strings we use
func htmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(s)
}
