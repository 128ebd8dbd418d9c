package notification

import (
	"context"
	"fmt"

	appcustody "github.com/notaria/backend/internal/application/custody"
	"github.com/notaria/backend/internal/infrastructure/config"
	"github.com/notaria/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogNotifier writes notices to the log instead of sending them
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(l *zap.Logger) *LogNotifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogNotifier{logger: l.Named("notifier")}
}

// NotifyReady logs the rendered notice. The verification code is masked.
func (n *LogNotifier) NotifyReady(ctx context.Context, notice appcustody.ReadyNotice) error {
	msg := Compose(notice)
	logger.WithLogger(ctx, n.logger).Info("Ready notice",
		zap.String("document_id", notice.DocumentID),
		zap.String("tracking_code", notice.TrackingCode),
		zap.String("email", notice.ClientEmail),
		zap.String("phone", notice.ClientPhone),
		zap.String("subject", msg.Subject),
		zap.String("verification_code", mask(notice.VerificationCode)),
	)
	return nil
}

func mask(code string) string {
	if code == "" {
		return ""
	}
	return "****"
}

// NewNotifier builds the notifier selected by notification.driver
func NewNotifier(cfg config.NotificationConfig, l *zap.Logger) (appcustody.ReadyNotifier, error) {
	switch cfg.Driver {
	case config.NotificationDriverLog, "":
		return NewLogNotifier(l), nil
	case config.NotificationDriverWebhook:
		return NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
	}
}

var (
	_ appcustody.ReadyNotifier = (*LogNotifier)(nil)
	_ appcustody.ReadyNotifier = (*WebhookNotifier)(nil)
	_ appcustody.ReadyNotifier = (*Dispatcher)(nil)
)
