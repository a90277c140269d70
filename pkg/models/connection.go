package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity status values. Fallback is not an error: it marks entities whose
// last probe was served from the static catalog rather than live data.
const (
	StatusConnected = "connected"
	StatusTesting   = "testing"
	StatusError     = "error"
	StatusPending   = "pending"
	StatusFallback  = "fallback"
)

// Region values for Connection.
const (
	RegionUS = "us"
	RegionEU = "eu"
)

// Connection identifies one Google Sheets credential set.
// It carries either a bare API key (public read-only REST access) or
// service-account material (authenticated access through the backend proxy).
type Connection struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Region       string    `json:"region"`
	APIKey       string    `json:"api_key,omitempty"`
	ClientEmail  string    `json:"client_email,omitempty"`
	PrivateKey   string    `json:"private_key,omitempty"`
	ProjectID    string    `json:"project_id,omitempty"`
	Status       string    `json:"status"`
	LastTested   time.Time `json:"last_tested,omitzero"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasServiceAccount reports whether the connection carries full
// service-account credentials usable by the authenticated proxy path.
func (c *Connection) HasServiceAccount() bool {
	return c.ClientEmail != "" && c.PrivateKey != "" && c.ProjectID != ""
}

// HasAPIKey reports whether the connection carries a public API key.
func (c *Connection) HasAPIKey() bool {
	return c.APIKey != ""
}
