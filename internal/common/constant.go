// Package common contains shared constants and sentinel errors used across
// RunaVault components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// bearer token on outbound requests.
const AccessTokenHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization header value.
const BearerPrefix = "Bearer "

// None is the placeholder stored in a grantee column (and in an otherwise
// empty tag set) meaning "nothing on this side".
const None = "NONE"

// DefaultSubdirectory means "no subdirectory".
const DefaultSubdirectory = "default"

// MaxNotesLength caps the notes attribute of a secret.
const MaxNotesLength = 500

// Roles recognised in a secret's role map. Only RoleEditor is checked;
// anything else behaves like RoleViewer.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
)
