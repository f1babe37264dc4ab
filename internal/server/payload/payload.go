// Package payload handles the opaque secret payload stored in every row.
//
// The server never decrypts a payload. It only understands the outer JSON
// envelope the clients use:
//
//	{"encryptedPassword": "...", "sharedWith": {"users": [{"userId": "...", "encryptedPassword": "..."}],
//	                                            "groups": [{"groupId": "...", "encryptedPassword": "..."}]}}
//
// where the sharedWith entries carry ciphertext variants sealed for a single
// grantee.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/runavault/internal/common"
)

type variant struct {
	UserID            string `json:"userId,omitempty"`
	GroupID           string `json:"groupId,omitempty"`
	EncryptedPassword string `json:"encryptedPassword"`
}

type variants struct {
	Users  []variant `json:"users"`
	Groups []variant `json:"groups"`
}

type envelope struct {
	EncryptedPassword string          `json:"encryptedPassword"`
	SharedWith        json.RawMessage `json:"sharedWith,omitempty"`
}

// Normalize turns the payload supplied on create or edit into the string that
// is stored. A JSON object, or a string holding one, is kept (compacted). Any
// other string is treated as bare ciphertext and wrapped in an envelope with
// no variants.
func Normalize(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	switch raw[0] {
	case '{':
		return compactObject(raw)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: invalid password format", common.ErrorValidation)
		}
		if s == "" {
			return "", fmt.Errorf("%w: password is required", common.ErrorValidation)
		}
		if strings.HasPrefix(s, "{") {
			return compactObject([]byte(s))
		}
		return wrap(s)
	default:
		return "", fmt.Errorf("%w: invalid password format", common.ErrorValidation)
	}
}

func compactObject(b []byte) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return "", fmt.Errorf("%w: invalid password format", common.ErrorValidation)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return "", fmt.Errorf("%w: invalid password format", common.ErrorValidation)
	}
	return buf.String(), nil
}

func wrap(ciphertext string) (string, error) {
	sw, err := json.Marshal(variants{Users: []variant{}, Groups: []variant{}})
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(envelope{EncryptedPassword: ciphertext, SharedWith: sw})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ForGroup returns the payload as seen by a member of group: when the
// envelope carries a variant for exactly that group, its ciphertext replaces
// the generic one. Otherwise stored is returned unchanged.
func ForGroup(stored, group string) string {
	return substitute(stored, func(v variants) (string, bool) {
		for _, g := range v.Groups {
			if g.GroupID == group && g.EncryptedPassword != "" {
				return g.EncryptedPassword, true
			}
		}
		return "", false
	})
}

// ForUser is ForGroup for a direct user grantee.
func ForUser(stored, user string) string {
	return substitute(stored, func(v variants) (string, bool) {
		for _, u := range v.Users {
			if u.UserID == user && u.EncryptedPassword != "" {
				return u.EncryptedPassword, true
			}
		}
		return "", false
	})
}

func substitute(stored string, pick func(variants) (string, bool)) string {
	var env envelope
	if err := json.Unmarshal([]byte(stored), &env); err != nil || len(env.SharedWith) == 0 {
		return stored
	}
	var v variants
	if err := json.Unmarshal(env.SharedWith, &v); err != nil {
		return stored
	}
	ciphertext, ok := pick(v)
	if !ok {
		return stored
	}

	env.EncryptedPassword = ciphertext
	b, err := json.Marshal(env)
	if err != nil {
		return stored
	}
	return string(b)
}

// Raw returns stored as a JSON value: verbatim when it already is valid JSON,
// else quoted as a JSON string.
func Raw(stored string) json.RawMessage {
	if stored != "" && json.Valid([]byte(stored)) {
		return json.RawMessage(stored)
	}
	b, _ := json.Marshal(stored)
	return b
}
