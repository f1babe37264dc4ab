// Package sitekey encodes and decodes the composite sort key of a secret row:
//
//	site[#subdirectory]#password_id#{group|user}:{grantee_id}
//
// The grantee discriminator is the last segment, so every row of one logical
// secret shares the prefix site[#subdirectory]#password_id.
package sitekey

import (
	"strings"

	"github.com/dmitrijs2005/runavault/internal/common"
)

const sep = "#"

// Kind is the grantee side a row belongs to.
type Kind string

const (
	KindGroup Kind = "group"
	KindUser  Kind = "user"
)

// Parts are the components of a decoded key. Subdirectory is always
// concrete: "default" when the key has no subdirectory segment.
type Parts struct {
	Site         string
	Subdirectory string
	PasswordID   string
	Kind         Kind
	Grantee      string
}

// HasGrantee reports whether the key carried a grantee suffix.
func (p Parts) HasGrantee() bool { return p.Kind != "" }

// Subdirectory normalizes an optional subdirectory to its concrete form.
func Subdirectory(subdirectory string) string {
	if subdirectory == "" {
		return common.DefaultSubdirectory
	}
	return subdirectory
}

// Prefix returns site[#subdirectory].
func Prefix(site, subdirectory string) string {
	if subdirectory == "" || subdirectory == common.DefaultSubdirectory {
		return site
	}
	return site + sep + subdirectory
}

// Base returns site[#subdirectory]#password_id, the prefix shared by all rows
// of one logical secret.
func Base(site, subdirectory, passwordID string) string {
	return Prefix(site, subdirectory) + sep + passwordID
}

// Encode builds the full composite key of one grantee row.
func Encode(site, subdirectory, passwordID string, kind Kind, grantee string) string {
	return Base(site, subdirectory, passwordID) + sep + string(kind) + ":" + grantee
}

// StripGrantee removes the grantee suffix, if any, returning the base key.
func StripGrantee(key string) string {
	base, _, _, ok := splitGrantee(key)
	if !ok {
		return key
	}
	return base
}

// Decode is the inverse of Encode. It also accepts the legacy create-time
// key site#password_id and a bare site.
func Decode(key string) Parts {
	var p Parts

	base, kind, grantee, ok := splitGrantee(key)
	if ok {
		p.Kind = kind
		p.Grantee = grantee
	}

	segments := strings.Split(base, sep)
	switch len(segments) {
	case 1:
		p.Site = segments[0]
	case 2:
		p.Site, p.PasswordID = segments[0], segments[1]
	default:
		p.Site = segments[0]
		p.PasswordID = segments[len(segments)-1]
		p.Subdirectory = strings.Join(segments[1:len(segments)-1], sep)
	}
	p.Subdirectory = Subdirectory(p.Subdirectory)

	return p
}

// Site returns the site segment of any key form.
func Site(key string) string {
	site, _, _ := strings.Cut(key, sep)
	return site
}

// ValidSegment reports whether s can be embedded in a key and decoded back.
func ValidSegment(s string) bool {
	return s != "" && !strings.Contains(s, sep)
}

func splitGrantee(key string) (base string, kind Kind, grantee string, ok bool) {
	i := strings.LastIndex(key, sep)
	if i < 0 {
		return key, "", "", false
	}
	k, g, found := strings.Cut(key[i+1:], ":")
	if !found {
		return key, "", "", false
	}
	switch Kind(k) {
	case KindGroup, KindUser:
		return key[:i], Kind(k), g, true
	}
	return key, "", "", false
}
