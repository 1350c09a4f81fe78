package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"networkbrain/internal/gapi"
	"networkbrain/internal/profiles"
)

// Sender submits a message through the admin's delegated Gmail grant and
// returns the provider message id.
type Sender interface {
	SendMail(ctx context.Context, identity string, req gapi.MailRequest) (string, error)
}

// Service sends mail on the admin's behalf and records every delivery.
type Service struct {
	sender   Sender
	repo     Repository
	profiles *profiles.Service
	logger   *slog.Logger
}

// NewService wires a mail service.
func NewService(sender Sender, repo Repository, profileSvc *profiles.Service, logger *slog.Logger) *Service {
	return &Service{sender: sender, repo: repo, profiles: profileSvc, logger: logger}
}

// Send delivers the message through Gmail and appends it to the send
// history. The log entry links to a profile when the primary recipient's
// address matches one; a logging failure after a successful delivery is
// reported in the logs but does not fail the send.
func (s *Service) Send(ctx context.Context, identity string, req gapi.MailRequest) (EmailLog, error) {
	messageID, err := s.sender.SendMail(ctx, identity, req)
	if err != nil {
		return EmailLog{}, fmt.Errorf("send mail: %w", err)
	}

	entry := EmailLog{
		ID:        uuid.New(),
		Sender:    strings.ToLower(strings.TrimSpace(identity)),
		Recipient: strings.TrimSpace(req.To),
		Subject:   req.Subject,
		Body:      req.Body,
		MessageID: messageID,
		SentAt:    time.Now().UTC(),
	}

	if profile, err := s.profiles.FindByEmail(ctx, entry.Recipient); err == nil {
		id := profile.ID
		entry.ProfileID = &id
	} else if !errors.Is(err, profiles.ErrNotFound) {
		s.logger.Warn("failed to match recipient to profile", "recipient", entry.Recipient, "error", err)
	}

	stored, err := s.repo.Create(ctx, entry)
	if err != nil {
		s.logger.Error("message sent but logging failed", "message_id", messageID, "error", err)
		return entry, nil
	}

	return stored, nil
}

// History returns the send history, newest first.
func (s *Service) History(ctx context.Context, opts ListOptions) ([]EmailLog, error) {
	return s.repo.List(ctx, opts)
}
