package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/form"
	"dataset-hub-service/internal/core/ports/output"
)

// SavePromptCommand is a prompt save request. Subject is the verified
// uid of the caller and is empty when requests are not authenticated.
type SavePromptCommand struct {
	Subject  string
	UID      string
	Username string
	Name     string
	Prompt   string
	Domain   string
}

type usernameResolver interface {
	Username(ctx context.Context, uid string) (string, error)
}

type PromptService struct {
	repo   ports.PromptRepository
	users  usernameResolver
	events ports.EventPublisher
}

func NewPromptService(repo ports.PromptRepository, users usernameResolver, events ports.EventPublisher) *PromptService {
	return &PromptService{repo: repo, users: users, events: events}
}

func (s *PromptService) ListPrompts(ctx context.Context) ([]*domain.Prompt, error) {
	return s.repo.List(ctx)
}

// SavePrompt stores a prompt under the given username, or under the
// username of uid when no username is sent. An authenticated caller can
// only save under their own username.
func (s *PromptService) SavePrompt(ctx context.Context, cmd SavePromptCommand) (*domain.Prompt, error) {
	username, err := s.promptOwner(ctx, cmd)
	if err != nil {
		return nil, err
	}

	pf := &form.PromptForm{Domain: cmd.Domain, Body: cmd.Prompt}
	pf.SetName(strings.TrimSpace(cmd.Name))
	if err := form.ValidatePromptForm(pf); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &domain.Prompt{
		ID:        uuid.New(),
		Name:      pf.Name,
		Domain:    pf.Domain,
		Body:      strings.TrimSpace(pf.Body),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, ports.Event{Type: ports.EventPromptSaved, Username: username, Name: p.Name, OccurredAt: now}); err != nil {
			log.WithError(err).Warn("failed to publish prompt event")
		}
	}
	return p, nil
}

func (s *PromptService) promptOwner(ctx context.Context, cmd SavePromptCommand) (string, error) {
	username := strings.TrimSpace(cmd.Username)
	uid := strings.TrimSpace(cmd.UID)
	if cmd.Subject != "" {
		if uid != "" && uid != cmd.Subject {
			return "", domain.ErrForbidden
		}
		uid = cmd.Subject
	} else if username != "" {
		return username, nil
	}
	if uid == "" {
		return "", domain.ErrUsernameMissing
	}

	resolved, err := s.users.Username(ctx, uid)
	if err != nil {
		return "", err
	}
	if username != "" && username != resolved {
		return "", domain.ErrForbidden
	}
	return resolved, nil
}