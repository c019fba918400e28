package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/LovationAdmin/financas-api/utils"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender sends SMS through the Twilio Messages API.
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

func (t *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		utils.SafeError("Twilio send to %s failed: %v", to, err)
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.Sid != nil {
		utils.SafeInfo("📱 SMS queued to %s (sid %s)", to, *resp.Sid)
	}
	return nil
}

// unconfiguredSender is used when no Twilio credentials are set.
type unconfiguredSender struct{}

func (unconfiguredSender) Send(context.Context, string, string) error {
	return ErrSMSNotConfigured
}

// NewSMSSender returns a Twilio sender, or one that always fails with
// ErrSMSNotConfigured when credentials are missing.
func NewSMSSender(accountSID, authToken, from string) SMSSender {
	if accountSID == "" || authToken == "" || from == "" {
		return unconfiguredSender{}
	}
	return NewTwilioSender(accountSID, authToken, from)
}
