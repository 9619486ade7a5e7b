// Package contact accepts messages from the contact form, records them and
// relays them by email.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	maxNameLen    = 100
	maxMessageLen = 5000
)

var ErrInvalid = errors.New("contact: invalid submission")

type Submission struct {
	Name    string `form:"fullName" json:"name"`
	Email   string `form:"email" json:"email"`
	Message string `form:"message" json:"message"`
}

// Normalize trims surrounding whitespace from every field.
func (s Submission) Normalize() Submission {
	return Submission{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Message: strings.TrimSpace(s.Message),
	}
}

func (s Submission) Validate() error {
	switch n := utf8.RuneCountInString(s.Name); {
	case n == 0:
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case n > maxNameLen:
		return fmt.Errorf("%w: name is too long", ErrInvalid)
	}
	// Name and email end up in mail headers.
	if strings.ContainsAny(s.Name, "\r\n") {
		return fmt.Errorf("%w: name must be a single line", ErrInvalid)
	}
	if _, err := mail.ParseAddress(s.Email); err != nil || strings.ContainsAny(s.Email, "\r\n") {
		return fmt.Errorf("%w: email address is not valid", ErrInvalid)
	}
	switch n := utf8.RuneCountInString(s.Message); {
	case n == 0:
		return fmt.Errorf("%w: message is required", ErrInvalid)
	case n > maxMessageLen:
		return fmt.Errorf("%w: message is too long", ErrInvalid)
	}
	return nil
}

// Message is a stored submission.
type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

// Service validates, stores and forwards submissions.
type Service struct {
	repo   *Repository
	mailer Mailer
	log    *zap.Logger
}

func NewService(repo *Repository, mailer Mailer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, mailer: mailer, log: log}
}

// Submit stores the message before sending it, so a mail outage never loses
// a submission. The returned error is ErrInvalid-wrapped for bad input and
// the mailer's error when delivery fails.
func (s *Service) Submit(ctx context.Context, sub Submission) (Message, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return Message{}, err
	}

	msg, err := s.repo.Create(ctx, sub)
	if err != nil {
		return Message{}, err
	}

	if err := s.mailer.Send(ctx, sub); err != nil {
		s.log.Error("send contact email", zap.Int64("message_id", msg.ID), zap.Error(err))
		return msg, err
	}

	if err := s.repo.MarkDelivered(ctx, msg.ID); err != nil {
		s.log.Warn("mark contact message delivered", zap.Int64("message_id", msg.ID), zap.Error(err))
	} else {
		msg.Delivered = true
	}
	s.log.Info("contact email sent", zap.Int64("message_id", msg.ID), zap.String("from", sub.Email))
	return msg, nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Message, error) {
	return s.repo.List(ctx, limit)
}
