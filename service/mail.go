package service

import (
	"encoding/json"

	"fly-messenger/event"
)

const mailerQueue = "mailer"

type mailPayload struct {
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Vars    map[string]string `json:"vars"`
}

// MailService hands outbound mail to the mailer queue. Delivery itself is
// the mailer worker's concern.
type MailService struct{}

func NewMailService() *MailService {
	return &MailService{}
}

func (s *MailService) Send(to, subject, template string, vars map[string]string) error {
	payload, err := json.Marshal(mailPayload{
		To:      to,
		Subject: subject,
		Vars:    vars,
	})
	if err != nil {
		return err
	}

	return event.Emit(mailerQueue, template, payload)
}
