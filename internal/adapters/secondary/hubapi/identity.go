package hubapi

import (
	"dataset-hub-service/internal/config"
	output "dataset-hub-service/internal/core/ports/output"
)

// ConfigIdentity is the signed-in user taken from client configuration.
type ConfigIdentity struct {
	uid   string
	email string
	name  string
}

var _ output.Identity = ConfigIdentity{}

func NewConfigIdentity(cfg *config.ClientConfig) ConfigIdentity {
	return ConfigIdentity{uid: cfg.UID, email: cfg.Email, name: cfg.Name}
}

func (i ConfigIdentity) CurrentUserID() string { return i.uid }
func (i ConfigIdentity) Email() string         { return i.email }
func (i ConfigIdentity) DisplayName() string   { return i.name }
