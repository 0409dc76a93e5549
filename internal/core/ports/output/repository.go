package ports

import (
	"context"

	"dataset-hub-service/internal/core/domain"
)

// DatasetOwner selects a dataset by its owner, given either as uid or as
// username, and its name.
type DatasetOwner struct {
	UID      string
	Username string
	Name     string
}

type DatasetRepository interface {
	Create(ctx context.Context, ds *domain.Dataset) error
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)
	GetByOwner(ctx context.Context, owner DatasetOwner) (*domain.Dataset, error)
	ExistsByName(ctx context.Context, uid, name string) (bool, error)
	UpdateFiles(ctx context.Context, ds *domain.Dataset) error
	Delete(ctx context.Context, id string) error
	ListByFileType(ctx context.Context, fileType domain.FileType) ([]*domain.Dataset, error)
	ListByUID(ctx context.Context, uid string) ([]*domain.Dataset, error)
	IncrementClicks(ctx context.Context, id string) error
}

type PromptRepository interface {
	Create(ctx context.Context, p *domain.Prompt) error
	List(ctx context.Context) ([]*domain.Prompt, error)
	ListByUsername(ctx context.Context, username string) ([]*domain.Prompt, error)
}

type UserRepository interface {
	// Upsert inserts the user or refreshes email/name of an existing uid.
	// The stored username of an existing user never changes.
	Upsert(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByUID(ctx context.Context, uid string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
