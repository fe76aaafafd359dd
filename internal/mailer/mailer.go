package mailer

import (
	"context"
	"fmt"

	"github.com/mateoherrera/threadline-backend/pkg/logger"
)

// Sender delivers transactional auth messages. Implementations must never
// log or store the raw code beyond delivery.
type Sender interface {
	SendOTP(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogSender writes deliveries to the structured log instead of an email
// provider. Used in development and tests.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds the dev sender.
func NewLogSender(logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &LogSender{logg: logg}, nil
}

func (s *LogSender) SendOTP(ctx context.Context, email, code string) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"email": email,
		"code":  code,
	})
	s.logg.Info(ctx, "mailer.otp.sent")
	return nil
}

func (s *LogSender) SendPasswordReset(ctx context.Context, email, token string) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"email": email,
		"token": token,
	})
	s.logg.Info(ctx, "mailer.password_reset.sent")
	return nil
}
