package ports

import (
	"context"
	"time"
)

const (
	EventDatasetUploaded = "dataset.uploaded"
	EventDatasetEdited   = "dataset.edited"
	EventDatasetDeleted  = "dataset.deleted"
	EventDatasetClicked  = "dataset.clicked"
	EventPromptSaved     = "prompt.saved"
)

type Event struct {
	Type       string            `json:"type"`
	DatasetID  string            `json:"dataset_id,omitempty"`
	Username   string            `json:"username,omitempty"`
	Name       string            `json:"name,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventPublisher is best-effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
