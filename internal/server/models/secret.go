// Package models defines the server-side shapes of secrets: the logical
// secret callers see and the physical rows it is stored as.
package models

import (
	"encoding/json"
	"time"
)

// SharedWith is the grantee set of a logical secret. Roles maps a grantee id
// (usually a group) to its role.
type SharedWith struct {
	Users  []string          `json:"users"`
	Groups []string          `json:"groups"`
	Roles  map[string]string `json:"roles"`
}

// Secret is one credential entry as the user conceptually edits it.
type Secret struct {
	OwnerID      string          `json:"user_id"`
	Site         string          `json:"site"`
	Key          string          `json:"key"`
	PasswordID   string          `json:"password_id"`
	Subdirectory string          `json:"subdirectory"`
	Username     string          `json:"username"`
	Payload      json.RawMessage `json:"password"`
	Encrypted    bool            `json:"encrypted"`
	SharedWith   SharedWith      `json:"shared_with"`
	Notes        string          `json:"notes"`
	Tags         []string        `json:"tags"`
	Favorite     bool            `json:"favorite"`
	Version      int64           `json:"version"`
	LastModified time.Time       `json:"last_modified"`
	OwnedByMe    bool            `json:"owned_by_me"`
}

// Access tells through which path a read was resolved.
type Access string

const (
	AccessOwner Access = "owner"
	AccessUser  Access = "user"
	AccessGroup Access = "group"
)

// ResolvedSecret is the result of a single-secret read.
type ResolvedSecret struct {
	Site         string `json:"site"`
	Username     string `json:"username"`
	Subdirectory string `json:"subdirectory"`
	Payload      string `json:"password"`
	OwnerID      string `json:"owner_id"`
	Access       Access `json:"access"`
}
