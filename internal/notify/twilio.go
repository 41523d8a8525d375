package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender mirrors messages as SMS to users who set a phone number.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) Channel() string { return "sms" }

func (s *TwilioSender) Accepts(msg Message) bool { return msg.Phone != "" }

func (s *TwilioSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.Phone)
	params.SetFrom(s.from)
	params.SetBody(msg.Subject + ": " + msg.Body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	if resp.Sid == nil {
		return fmt.Errorf("twilio send: empty message sid")
	}
	return nil
}
