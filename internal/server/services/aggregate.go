package services

import (
	"maps"
	"sort"
	"strings"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/payload"
	"github.com/dmitrijs2005/runavault/internal/server/sitekey"
)

type mergeKey struct {
	owner        string
	base         string
	subdirectory string
}

// aggregator folds physical rows into logical secrets.
type aggregator struct {
	requester string
	secrets   map[mergeKey]*models.Secret
}

func newAggregator(requester string) *aggregator {
	return &aggregator{requester: requester, secrets: make(map[mergeKey]*models.Secret)}
}

func (a *aggregator) add(rows ...*models.Row) {
	for _, r := range rows {
		s := project(r, a.requester)
		k := mergeKey{owner: s.OwnerID, base: s.Key, subdirectory: s.Subdirectory}

		cur, ok := a.secrets[k]
		if !ok {
			a.secrets[k] = &s
			continue
		}

		groups := append(cur.SharedWith.Groups, s.SharedWith.Groups...)
		users := append(cur.SharedWith.Users, s.SharedWith.Users...)
		if s.Version > cur.Version {
			*cur = s
		}
		cur.SharedWith.Groups = groups
		cur.SharedWith.Users = users
	}
}

// result returns the merged secrets ordered by site (case-insensitive), then
// base key, then owner. Grantee lists are de-duplicated and sorted.
func (a *aggregator) result() []models.Secret {
	out := make([]models.Secret, 0, len(a.secrets))
	for _, s := range a.secrets {
		s.SharedWith.Groups = sortedUnique(s.SharedWith.Groups)
		s.SharedWith.Users = sortedUnique(s.SharedWith.Users)
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Site), strings.ToLower(out[j].Site)
		if li != lj {
			return li < lj
		}
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out
}

// project maps one row to the logical secret it belongs to, with only that
// row's grantee in SharedWith.
func project(r *models.Row, requester string) models.Secret {
	parts := sitekey.Decode(r.Key)

	passwordID := r.PasswordID
	if passwordID == "" {
		passwordID = parts.PasswordID
	}

	s := models.Secret{
		OwnerID:      r.OwnerID,
		Site:         parts.Site,
		Key:          sitekey.StripGrantee(r.Key),
		PasswordID:   passwordID,
		Subdirectory: rowSubdirectory(r),
		Username:     r.Username,
		Payload:      payload.Raw(r.Payload),
		Encrypted:    r.Encrypted,
		SharedWith: models.SharedWith{
			Users:  []string{},
			Groups: []string{},
			Roles:  map[string]string{},
		},
		Notes:        r.Notes,
		Tags:         visibleTags(r.Tags),
		Favorite:     r.Favorite,
		Version:      r.Version,
		LastModified: r.LastModified,
		OwnedByMe:    r.OwnerID == requester,
	}
	if r.SharedWithRoles != nil {
		s.SharedWith.Roles = maps.Clone(r.SharedWithRoles)
	}
	if r.SharedWithGroups != "" && r.SharedWithGroups != common.None {
		s.SharedWith.Groups = append(s.SharedWith.Groups, r.SharedWithGroups)
	}
	if r.SharedWithUsers != "" && r.SharedWithUsers != common.None {
		s.SharedWith.Users = append(s.SharedWith.Users, r.SharedWithUsers)
	}
	return s
}

// visibleTags drops the NONE placeholder of an empty tag set.
func visibleTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != common.None {
			out = append(out, t)
		}
	}
	return out
}

// storedTags is the inverse of visibleTags.
func storedTags(tags []string) []string {
	out := uniqueNonEmpty(tags)
	if len(out) == 0 {
		return []string{common.None}
	}
	sort.Strings(out)
	return out
}

func sortedUnique(ids []string) []string {
	out := uniqueNonEmpty(ids)
	sort.Strings(out)
	return out
}
