package models

// Identity is the verified caller of an operation. Subject is both the
// owner id of the caller's secrets and the requester id on reads.
type Identity struct {
	Subject  string
	Groups   []string
	Email    string
	Username string
}
