// Package vaultapi defines the VaultService wire contract shared by the
// server and the command-line client: messages, the JSON codec, the gRPC
// service descriptor and a client stub.
package vaultapi

import (
	"encoding/json"
	"time"
)

// SharedWith lists grantees. On edit a nil list keeps the current grantees
// while an empty one clears them.
type SharedWith struct {
	Users  []string          `json:"users,omitempty"`
	Groups []string          `json:"groups,omitempty"`
	Roles  map[string]string `json:"roles,omitempty"`
}

// Secret is one logical secret as listed to a caller.
type Secret struct {
	OwnerID      string          `json:"user_id"`
	Site         string          `json:"site"`
	Key          string          `json:"key"`
	PasswordID   string          `json:"password_id"`
	Subdirectory string          `json:"subdirectory"`
	Username     string          `json:"username"`
	Password     json.RawMessage `json:"password,omitempty"`
	Encrypted    bool            `json:"encrypted"`
	SharedWith   SharedWith      `json:"shared_with"`
	Notes        string          `json:"notes,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Favorite     bool            `json:"favorite"`
	Version      int64           `json:"version"`
	LastModified time.Time       `json:"last_modified"`
	OwnedByMe    bool            `json:"owned_by_me"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type CreateSecretRequest struct {
	Site         string          `json:"site"`
	Username     string          `json:"username"`
	Password     json.RawMessage `json:"password"`
	Encrypted    *bool           `json:"encrypted,omitempty"`
	SharedWith   SharedWith      `json:"shared_with"`
	Subdirectory string          `json:"subdirectory,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Favorite     bool            `json:"favorite,omitempty"`
	PasswordID   string          `json:"password_id,omitempty"`
}

type CreateSecretResponse struct {
	Secret Secret `json:"secret"`
}

type GetSecretRequest struct {
	Site         string `json:"site"`
	Subdirectory string `json:"subdirectory,omitempty"`
}

// GetSecretResponse carries the payload variant chosen for the caller.
// Access is "owner", "user" or "group".
type GetSecretResponse struct {
	Site         string          `json:"site"`
	Username     string          `json:"username"`
	Subdirectory string          `json:"subdirectory"`
	Password     json.RawMessage `json:"password"`
	OwnerID      string          `json:"owner_id"`
	Access       string          `json:"access"`
}

type ListSecretsRequest struct{}

type ListSecretsResponse struct {
	Secrets []Secret `json:"secrets"`
}

// EditSecretRequest addresses a secret by Ref ("site#password_id"). Absent
// fields are left unchanged.
type EditSecretRequest struct {
	Ref          string          `json:"ref"`
	OwnerID      string          `json:"owner_id,omitempty"`
	Username     *string         `json:"username,omitempty"`
	Password     json.RawMessage `json:"password,omitempty"`
	Encrypted    *bool           `json:"encrypted,omitempty"`
	Subdirectory *string         `json:"subdirectory,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	Tags         *[]string       `json:"tags,omitempty"`
	Favorite     *bool           `json:"favorite,omitempty"`
	SharedWith   *SharedWith     `json:"shared_with,omitempty"`
}

type EditSecretResponse struct {
	Secret Secret `json:"secret"`
	Moved  bool   `json:"moved"`
}

type DeleteSecretRequest struct {
	Site         string `json:"site"`
	Subdirectory string `json:"subdirectory,omitempty"`
	OwnerID      string `json:"owner_id,omitempty"`
}

type DeleteSecretResponse struct {
	Deleted int `json:"deleted"`
}

type ShareDirectoryRequest struct {
	Subdirectory string     `json:"subdirectory"`
	SharedWith   SharedWith `json:"shared_with"`
}

type ShareDirectoryResponse struct {
	Secrets []Secret `json:"secrets"`
}
