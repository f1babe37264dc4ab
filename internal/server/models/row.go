package models

import "time"

// Row is one stored record of a logical secret; a secret has one row per
// grantee. Field tags name the storage attributes shared by every backend.
type Row struct {
	OwnerID          string            `dynamodbav:"user_id"`
	Key              string            `dynamodbav:"site"`
	Username         string            `dynamodbav:"username"`
	Payload          string            `dynamodbav:"password"`
	Encrypted        bool              `dynamodbav:"encrypted"`
	SharedWithRoles  map[string]string `dynamodbav:"shared_with_roles"`
	Subdirectory     string            `dynamodbav:"subdirectory"`
	LastModified     time.Time         `dynamodbav:"last_modified"`
	Notes            string            `dynamodbav:"notes"`
	Tags             []string          `dynamodbav:"tags,stringset"`
	Favorite         bool              `dynamodbav:"favorite"`
	Version          int64             `dynamodbav:"version"`
	PasswordID       string            `dynamodbav:"password_id"`
	SharedWithGroups string            `dynamodbav:"shared_with_groups"`
	SharedWithUsers  string            `dynamodbav:"shared_with_users"`
}

// WithGrantee returns a copy of r addressed to key with the given grantee
// discriminator.
func (r Row) WithGrantee(key, group, user string) Row {
	r.Key = key
	r.SharedWithGroups = group
	r.SharedWithUsers = user
	return r
}
