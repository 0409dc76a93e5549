package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/ports/output"
	"dataset-hub-service/internal/core/upload"
)

// StaticIdentity is a fixed signed-in user. A zero value is signed out.
type StaticIdentity struct {
	UID  string
	Mail string
	Name string
}

func (s StaticIdentity) CurrentUserID() string { return s.UID }
func (s StaticIdentity) Email() string         { return s.Mail }
func (s StaticIdentity) DisplayName() string   { return s.Name }

// MockHubAPI is a mock of the client-side REST API.
type MockHubAPI struct {
	mock.Mock
}

func (m *MockHubAPI) CheckDatasetName(ctx context.Context, uid, name string) (bool, string, error) {
	args := m.Called(ctx, uid, name)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockHubAPI) Upload(ctx context.Context, req *upload.Request) (*ports.UploadResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.UploadResult), args.Error(1)
}

func (m *MockHubAPI) SavePrompt(ctx context.Context, req ports.SavePromptRequest) (*domain.Prompt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}
