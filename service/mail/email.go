package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ulternae/kcchat/util"
)

// EmailService holds the SMTP configuration used for outgoing mail.
type EmailService struct {
	Host  string
	Port  string
	Email string
	Auth  smtp.Auth
}

func NewEmailService(config *util.Config) *EmailService {
	smtpAuth := smtp.PlainAuth("", config.Email, config.AppPassword, config.SMTPHost)

	return &EmailService{
		Host:  config.SMTPHost,
		Port:  config.SMTPPort,
		Email: config.Email,
		Auth:  smtpAuth,
	}
}

// SendEmail delivers an HTML email to a single recipient.
func (service *EmailService) SendEmail(to, subject, body string) error {
	headers := map[string]string{
		"From":         service.Email,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	var message strings.Builder
	for key, value := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%s", service.Host, service.Port)
	return smtp.SendMail(
		addr,
		service.Auth,
		service.Email,
		[]string{to},
		[]byte(message.String()),
	)
}
