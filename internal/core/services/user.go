package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/ports/output"
)

const (
	usernameCacheTTL     = 5 * time.Minute
	usernameCacheCleanup = 10 * time.Minute
	maxUsernameAttempts  = 100
)

var usernameInvalid = regexp.MustCompile(`[^a-z0-9_]+`)

type UserService struct {
	repo     ports.UserRepository
	datasets ports.DatasetRepository
	prompts  ports.PromptRepository
	cache    *cache.Cache
}

func NewUserService(repo ports.UserRepository, datasets ports.DatasetRepository, prompts ports.PromptRepository) *UserService {
	return &UserService{
		repo:     repo,
		datasets: datasets,
		prompts:  prompts,
		cache:    cache.New(usernameCacheTTL, usernameCacheCleanup),
	}
}

// RegisterUID records the signed-in user. Known users get their email and
// name refreshed; new users get a unique username.
func (s *UserService) RegisterUID(ctx context.Context, uid, email, name string) (*domain.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, domain.ErrMissingUID
	}

	user := &domain.User{UID: uid, Email: email, Name: name, CreatedAt: time.Now()}
	existing, err := s.repo.GetByUID(ctx, uid)
	switch {
	case err == nil:
		user.Username = existing.Username
		user.Avatar = existing.Avatar
		user.CreatedAt = existing.CreatedAt
		if user.Email == "" {
			user.Email = existing.Email
		}
		if user.Name == "" {
			user.Name = existing.Name
		}
	case errors.Is(err, domain.ErrUserNotFound):
		username, err := s.uniqueUsername(ctx, BaseUsername(uid, email, name))
		if err != nil {
			return nil, err
		}
		user.Username = username
	default:
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, user)
	if err != nil {
		return nil, err
	}
	s.cache.Set(uid, saved.Username, cache.DefaultExpiration)
	log.WithFields(log.Fields{"uid": uid, "username": saved.Username}).Info("user registered")
	return saved, nil
}

// BaseUsername derives a handle from the display name, else the email
// local part, else the uid.
func BaseUsername(uid, email, name string) string {
	candidates := []string{name}
	if at := strings.IndexByte(email, '@'); at > 0 {
		candidates = append(candidates, email[:at])
	}
	candidates = append(candidates, uid)
	for _, c := range candidates {
		u := strings.Trim(usernameInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(c)), "_"), "_")
		if u != "" {
			return u
		}
	}
	return "user"
}

func (s *UserService) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i <= maxUsernameAttempts+1; i++ {
		taken, err := s.repo.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	return "", fmt.Errorf("no free username for %q", base)
}

func (s *UserService) Avatar(ctx context.Context, uid string) (string, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return "", err
	}
	return user.Avatar, nil
}

// Username resolves uid to a username, served from cache when possible.
func (s *UserService) Username(ctx context.Context, uid string) (string, error) {
	if v, ok := s.cache.Get(uid); ok {
		return v.(string), nil
	}
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return "", err
	}
	if user.Username == "" {
		return "", domain.ErrUsernameMissing
	}
	s.cache.Set(uid, user.Username, cache.DefaultExpiration)
	return user.Username, nil
}

func (s *UserService) ProfileByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *UserService) ProfileByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *UserService) profile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	p := &domain.Profile{User: *user}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p.Datasets, err = s.datasets.ListByUID(gctx, user.UID)
		return err
	})
	g.Go(func() error {
		var err error
		p.Prompts, err = s.prompts.ListByUsername(gctx, user.Username)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}
