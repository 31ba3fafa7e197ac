package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type smsSender func(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)

// TwilioNotifier sends codes by SMS.
type TwilioNotifier struct {
	send       smsSender
	fromNumber string
}

func NewTwilio(accountSID, authToken, fromNumber string) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{send: client.Api.CreateMessage, fromNumber: fromNumber}
}

func (t *TwilioNotifier) SendCode(ctx context.Context, identifier, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(identifier)
	params.SetFrom(t.fromNumber)
	params.SetBody(codeMessage(code, ttl))

	if _, err := t.send(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
