package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/retry"
	"github.com/mailersend/mailersend-go"
	"go.uber.org/zap"
)

// EmailSender delivers the booking confirmation email
type EmailSender interface {
	SendBookingConfirmation(ctx context.Context, to *domain.User, booking *domain.Booking) error
}

// EmailConfig configures the MailerSend sender
type EmailConfig struct {
	APIKey      string
	FromEmail   string
	FromName    string
	SendTimeout time.Duration
	Retry       *retry.Config
}

// MailerSendEmailSender sends email through the MailerSend API
type MailerSendEmailSender struct {
	client *mailersend.Mailersend
	cfg    EmailConfig
	log    *logger.Logger
}

// NewEmailSender returns a MailerSend sender, or a logging sender when no
// API key is configured
func NewEmailSender(cfg EmailConfig, log *logger.Logger) EmailSender {
	if log == nil {
		log = logger.Get()
	}
	if cfg.APIKey == "" {
		return NewLogEmailSender(log)
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = &retry.Config{MaxRetries: 2, InitialInterval: 500 * time.Millisecond, MaxInterval: 2 * time.Second, Multiplier: 2}
	}
	return &MailerSendEmailSender{
		client: mailersend.NewMailersend(cfg.APIKey),
		cfg:    cfg,
		log:    log,
	}
}

// SendBookingConfirmation implements EmailSender
func (s *MailerSendEmailSender) SendBookingConfirmation(ctx context.Context, to *domain.User, booking *domain.Booking) error {
	if to == nil || to.Email == "" {
		return errors.New("recipient has no email address")
	}

	subject, text := confirmationEmail(to, booking)

	return retry.Do(ctx, s.cfg.Retry, func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
		defer cancel()

		message := s.client.Email.NewMessage()
		message.SetFrom(mailersend.From{Name: s.cfg.FromName, Email: s.cfg.FromEmail})
		message.SetRecipients([]mailersend.Recipient{{Name: to.Name, Email: to.Email}})
		message.SetSubject(subject)
		message.SetText(text)
		message.SetTags([]string{"booking-confirmation"})

		res, err := s.client.Email.Send(sendCtx, message)
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}

		s.log.Debug("Confirmation email sent",
			zap.String("booking_id", booking.ID),
			zap.String("message_id", res.Header.Get("X-Message-Id")),
		)
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		s.log.Warn("Retrying confirmation email",
			zap.String("booking_id", booking.ID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
}

// LogEmailSender only logs; used in development
type LogEmailSender struct {
	log *logger.Logger
}

// NewLogEmailSender creates a new LogEmailSender
func NewLogEmailSender(log *logger.Logger) *LogEmailSender {
	return &LogEmailSender{log: log}
}

// SendBookingConfirmation implements EmailSender
func (s *LogEmailSender) SendBookingConfirmation(ctx context.Context, to *domain.User, booking *domain.Booking) error {
	subject, _ := confirmationEmail(to, booking)
	email := ""
	if to != nil {
		email = to.Email
	}
	s.log.Info("Email delivery disabled, skipping confirmation email",
		zap.String("booking_id", booking.ID),
		zap.String("to", email),
		zap.String("subject", subject),
	)
	return nil
}

func confirmationEmail(to *domain.User, b *domain.Booking) (string, string) {
	name := "there"
	if to != nil && to.Name != "" {
		name = to.Name
	}
	subject := "Your booking is confirmed"
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received your payment. Your %s booking on %s is confirmed.\n\nBooking reference: %s\n",
		name, b.EventType, b.EventDate.Format("Monday, January 2, 2006"), b.ID,
	)
	return subject, text
}
