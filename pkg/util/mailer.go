package util

import (
	"fmt"
	"net/smtp"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// Mailer sends transactional mail over SMTP. With no sender configured it
// logs the message instead (development mode).
type Mailer struct {
	cfg  config.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendPasswordReset mails a reset link carrying token.
func (m *Mailer) SendPasswordReset(toEmail, token string) error {
	link := fmt.Sprintf("%s?token=%s", m.cfg.ResetURL, token)

	if m.cfg.Email == "" || m.cfg.Password == "" {
		logger.Info("[DEV MODE] password reset link", logger.Fields{
			"to":   toEmail,
			"link": link,
		})
		return nil
	}

	subject := "[TasteClub] Reset your password"
	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 40px; border-radius: 10px;">
		<h1 style="color: #333;">Reset your password</h1>
		<p style="color: #666; line-height: 1.6;">Someone asked to reset the password of your TasteClub account.</p>
		<p><a href="%s" style="color: #e4572e;">Choose a new password</a></p>
		<p style="color: #999; font-size: 14px;">The link is valid for %s. If you did not ask for it, ignore this email.</p>
	</div>
</body>
</html>
`, link, m.cfg.ResetTokenTTL)

	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		m.cfg.Email, toEmail, subject, body,
	))

	auth := smtp.PlainAuth("", m.cfg.Email, m.cfg.Password, m.cfg.Host)
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.Email, []string{toEmail}, message); err != nil {
		logger.Error("Failed to send password reset email", err, logger.Fields{"to": toEmail})
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Password reset email sent", logger.Fields{"to": toEmail})
	return nil
}
