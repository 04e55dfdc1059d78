package service

import (
	"fmt"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

func activationMail(name, email, code string) domain.MailMessage {
	return domain.MailMessage{
		To:      email,
		Subject: "Activate your account",
		Body: fmt.Sprintf("Hello %s,\n\nYour activation code is %s. It expires in 5 minutes.\n\n"+
			"If you did not sign up, you can ignore this message.\n", name, code),
	}
}

func resetMail(name, email, link string) domain.MailMessage {
	return domain.MailMessage{
		To:      email,
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires in 10 minutes.\n\n%s\n\n"+
			"If you did not request a reset, you can ignore this message.\n", name, link),
	}
}
