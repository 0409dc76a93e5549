package ports

import (
	"context"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/upload"
)

// Identity is the signed-in user as seen by the client. CurrentUserID
// returns "" when nobody is signed in.
type Identity interface {
	CurrentUserID() string
	Email() string
	DisplayName() string
}

type UploadResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Files   []string `json:"files"`
}

type NameCheck struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type SavePromptRequest struct {
	UID      string `json:"uid,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"prompt_name"`
	Prompt   string `json:"prompt"`
	Domain   string `json:"domain"`
}

type ClickRequest struct {
	UID         string `json:"uid,omitempty"`
	Username    string `json:"username,omitempty"`
	DatasetName string `json:"datasetName"`
}

// DatasetUploader is what the upload form needs from the REST API.
type DatasetUploader interface {
	CheckDatasetName(ctx context.Context, uid, name string) (available bool, message string, err error)
	Upload(ctx context.Context, req *upload.Request) (*UploadResult, error)
}

type PromptSaver interface {
	SavePrompt(ctx context.Context, req SavePromptRequest) (*domain.Prompt, error)
}

// HubAPI is the full REST API surface used by the client.
type HubAPI interface {
	DatasetUploader
	PromptSaver
	DeleteDataset(ctx context.Context, id, uid string) error
	DatasetsByCategory(ctx context.Context, category string) ([]*domain.Dataset, error)
	LogClick(ctx context.Context, req ClickRequest) (*domain.Dataset, error)
	ListPrompts(ctx context.Context) ([]*domain.Prompt, error)
	RegisterUID(ctx context.Context, uid, email, name string) (*domain.User, error)
	Avatar(ctx context.Context, uid string) (string, error)
	Profile(ctx context.Context, username string) (*domain.Profile, error)
	ProfileByUID(ctx context.Context, uid string) (*domain.Profile, error)
}
