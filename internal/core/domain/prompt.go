package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// PromptNamePattern is the only shape a prompt name may take.
var PromptNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type Prompt struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"prompt_name"`
	Domain    string    `json:"domain"`
	Body      string    `json:"prompt"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Prompt) LastModified() time.Time {
	if p.UpdatedAt.IsZero() {
		return p.CreatedAt
	}
	return p.UpdatedAt
}

type User struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a user together with everything they own.
type Profile struct {
	User
	Datasets []*Dataset `json:"datasets"`
	Prompts  []*Prompt  `json:"prompts"`
}
