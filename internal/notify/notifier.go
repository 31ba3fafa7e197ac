package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Notifier delivers a one-time code to the owner of identifier.
type Notifier interface {
	SendCode(ctx context.Context, identifier, code string, ttl time.Duration) error
}

func codeMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
}

func isEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}
