package gapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// MailRequest describes an outbound email.
type MailRequest struct {
	To      string
	Subject string
	Body    string
	CC      string
	BCC     string
	HTML    bool
}

// SendMail sends the message as the identity via Gmail and returns the
// provider message id. The configured oversight address is always appended
// to the BCC list in addition to any caller-supplied BCC.
func (f *ClientFactory) SendMail(ctx context.Context, identity string, req MailRequest) (string, error) {
	if strings.TrimSpace(req.To) == "" {
		return "", fmt.Errorf("%w: recipient is required", ErrBadRequest)
	}
	if strings.TrimSpace(req.Subject) == "" {
		return "", fmt.Errorf("%w: subject is required", ErrBadRequest)
	}
	if req.Body == "" {
		return "", fmt.Errorf("%w: body is required", ErrBadRequest)
	}

	source, err := f.TokenSource(ctx, identity)
	if err != nil {
		return "", err
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return "", fmt.Errorf("build gmail client: %w", err)
	}

	raw := encodeRawMessage(buildRawMessage(req, f.oversightBCC))
	sent, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		classified := classifyError(err)
		if errors.Is(classified, ErrReauthorizationRequired) || errors.Is(classified, ErrTransient) || errors.Is(classified, ErrBadRequest) {
			return "", classified
		}
		return "", fmt.Errorf("%w: %v", ErrSend, err)
	}

	return sent.Id, nil
}

// headerValue strips CR and LF from a caller-supplied value so it cannot
// smuggle extra headers into the message.
func headerValue(value string) string {
	value = strings.ReplaceAll(value, "\r", "")
	return strings.ReplaceAll(value, "\n", " ")
}

// buildRawMessage constructs the RFC-2822 message. Caller-supplied BCC
// recipients are kept; the oversight address is appended, never substituted.
func buildRawMessage(req MailRequest, oversightBCC string) string {
	bcc := oversightBCC
	if strings.TrimSpace(req.BCC) != "" {
		bcc = headerValue(req.BCC) + ", " + oversightBCC
	}

	lines := []string{
		"To: " + headerValue(req.To),
		"Subject: " + headerValue(req.Subject),
	}
	if strings.TrimSpace(req.CC) != "" {
		lines = append(lines, "Cc: "+headerValue(req.CC))
	}
	lines = append(lines, "Bcc: "+bcc)
	if req.HTML {
		lines = append(lines, "Content-Type: text/html; charset=UTF-8")
	} else {
		lines = append(lines, "Content-Type: text/plain; charset=UTF-8")
	}
	lines = append(lines, "", req.Body)

	return strings.Join(lines, "\r\n")
}

// encodeRawMessage produces the web-safe base64 form Gmail expects:
// standard base64 with '+' -> '-', '/' -> '_' and padding stripped.
func encodeRawMessage(message string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(message))
}
