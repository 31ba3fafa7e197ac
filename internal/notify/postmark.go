package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/keighl/postmark"
)

type emailSender interface {
	SendEmail(email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkNotifier sends codes by email.
type PostmarkNotifier struct {
	client emailSender
	from   string
}

func NewPostmark(serverToken, from string) *PostmarkNotifier {
	return &PostmarkNotifier{client: postmark.NewClient(serverToken, ""), from: from}
}

func (p *PostmarkNotifier) SendCode(ctx context.Context, identifier, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := codeMessage(code, ttl)
	_, err := p.client.SendEmail(postmark.Email{
		From:     p.from,
		To:       identifier,
		Subject:  "Your verification code",
		HtmlBody: "<strong>" + body + "</strong>",
		TextBody: body,
		Tag:      "otp",
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
