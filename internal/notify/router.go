package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Router picks a channel from the identifier: addresses containing "@" go to
// Email, everything else to SMS. A nil channel falls back to Fallback.
type Router struct {
	Email    Notifier
	SMS      Notifier
	Fallback Notifier
}

func (r *Router) SendCode(ctx context.Context, identifier, code string, ttl time.Duration) error {
	channel := r.SMS
	if isEmail(identifier) {
		channel = r.Email
	}
	if channel == nil {
		channel = r.Fallback
	}
	if channel == nil {
		return nil
	}
	return channel.SendCode(ctx, identifier, code, ttl)
}

type Settings struct {
	TwilioSID           string
	TwilioToken         string
	TwilioFrom          string
	PostmarkServerToken string
	PostmarkFrom        string
}

// FromSettings wires every configured channel behind a Router with a console fallback.
func FromSettings(s Settings, log *zap.Logger) *Router {
	r := &Router{Fallback: NewConsole(log)}
	if s.TwilioSID != "" && s.TwilioToken != "" && s.TwilioFrom != "" {
		r.SMS = NewTwilio(s.TwilioSID, s.TwilioToken, s.TwilioFrom)
		log.Info("sms delivery enabled")
	}
	if s.PostmarkServerToken != "" && s.PostmarkFrom != "" {
		r.Email = NewPostmark(s.PostmarkServerToken, s.PostmarkFrom)
		log.Info("email delivery enabled")
	}
	return r
}
