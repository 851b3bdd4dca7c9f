// Package messages adjusts outgoing email message records.
package messages

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
)

// ComposeReplyAll is the compose mode of a reply-all draft.
const ComposeReplyAll = "REPLY_TO_ALL"

// Recipient is one additional recipient line.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	CC    bool   `json:"cc,omitempty"`
	BCC   bool   `json:"bcc,omitempty"`
}

// Draft is a message being composed.
type Draft struct {
	Event      string
	Compose    string
	Recipients []Recipient
}

// Message is a message about to be saved.
type Message struct {
	TemplateID         int64
	IncludeTransaction bool
}

// Service holds the company address list and the template block list.
type Service struct {
	companyEmails map[string]struct{}
	blocked       map[int64]struct{}
	logger        *slog.Logger
}

// NewService builds Service.
func NewService(companyEmails []string, blockedTemplates []int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	fold := cases.Fold()
	emails := make(map[string]struct{}, len(companyEmails))
	for _, e := range companyEmails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		emails[fold.String(e)] = struct{}{}
	}
	blocked := make(map[int64]struct{}, len(blockedTemplates))
	for _, id := range blockedTemplates {
		blocked[id] = struct{}{}
	}
	return &Service{companyEmails: emails, blocked: blocked, logger: logger}
}

// StripReplyAll drops company addresses from the recipients of a new reply-all
// draft. Other drafts are returned unchanged. The boolean reports a change.
func (s *Service) StripReplyAll(d Draft) ([]Recipient, bool) {
	if d.Event != "create" || d.Compose != ComposeReplyAll {
		return d.Recipients, false
	}
	fold := cases.Fold()
	kept := make([]Recipient, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		if r.Email != "" {
			if _, ok := s.companyEmails[fold.String(strings.TrimSpace(r.Email))]; ok {
				s.logger.Debug("removed recipient", slog.String("email", r.Email))
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept, len(kept) != len(d.Recipients)
}

// EnforceTemplatePolicy forces include-transaction off for blocked templates.
func (s *Service) EnforceTemplatePolicy(m Message) (Message, bool) {
	if _, ok := s.blocked[m.TemplateID]; !ok {
		return m, false
	}
	m.IncludeTransaction = false
	s.logger.Info("include transaction disabled", slog.Int64("template_id", m.TemplateID))
	return m, true
}
