package services

import (
	"context"
	"maps"
	"slices"
	"sort"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/payload"
	"github.com/dmitrijs2005/runavault/internal/server/sitekey"
)

// EditSecret rewrites one secret. The caller must own it or hold the editor
// role through one of their groups.
func (s *SecretService) EditSecret(ctx context.Context, id models.Identity, req EditRequest) (*EditResult, error) {
	if err := checkIdentity(id); err != nil {
		return nil, err
	}

	parts := sitekey.Decode(req.Ref)
	if parts.PasswordID == "" {
		return nil, invalid("secret reference must look like site#password_id")
	}
	if err := checkSite(parts.Site); err != nil {
		return nil, err
	}
	if err := s.checkEdit(req); err != nil {
		return nil, err
	}

	owner := req.OwnerID
	if owner == "" {
		owner = id.Subject
	}

	rows, err := s.secretRows(ctx, owner, parts.Site, parts.PasswordID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrorNotFound
	}

	current := newest(rows, func(*models.Row) bool { return true })
	if !canEdit(id, owner, current) {
		return nil, common.ErrorPermissionDenied
	}

	tmpl := *current
	if req.Username != nil {
		tmpl.Username = *req.Username
	}
	if len(req.Password) > 0 && string(req.Password) != "null" {
		stored, err := payload.Normalize(req.Password)
		if err != nil {
			return nil, err
		}
		tmpl.Payload = stored
	}
	if req.Encrypted != nil {
		tmpl.Encrypted = *req.Encrypted
	}
	if req.Subdirectory != nil {
		tmpl.Subdirectory = sitekey.Subdirectory(*req.Subdirectory)
	}
	if req.Notes != nil {
		tmpl.Notes = *req.Notes
	}
	if req.Tags != nil {
		tmpl.Tags = storedTags(*req.Tags)
	}
	if req.Favorite != nil {
		tmpl.Favorite = *req.Favorite
	}

	sw := existingGrantees(rows, current)
	if req.SharedWith != nil {
		if req.SharedWith.Groups != nil {
			sw.Groups = req.SharedWith.Groups
		}
		if req.SharedWith.Users != nil {
			sw.Users = req.SharedWith.Users
		}
		if req.SharedWith.Roles != nil {
			sw.Roles = maps.Clone(req.SharedWith.Roles)
		}
	}
	tmpl.SharedWithRoles = sw.Roles
	tmpl.OwnerID = owner
	tmpl.PasswordID = parts.PasswordID
	tmpl.Version = maxVersion(rows) + 1
	tmpl.LastModified = s.now()

	desired := fanOut(tmpl, parts.Site, tmpl.Subdirectory, parts.PasswordID, sw)
	if err := s.writer.reconcile(ctx, rows, desired); err != nil {
		s.log.Warn(ctx, "edit secret failed", "owner", owner, "site", parts.Site, "error", err)
		return nil, err
	}

	moved := tmpl.Subdirectory != rowSubdirectory(current)
	s.log.Info(ctx, "secret edited", "owner", owner, "editor", id.Subject, "site", parts.Site,
		"version", tmpl.Version, "rows", len(desired), "moved", moved)

	return &EditResult{Secret: *merged(desired, id.Subject), Moved: moved}, nil
}

func (s *SecretService) checkEdit(req EditRequest) error {
	if req.Username != nil && *req.Username == "" {
		return invalid("username is required")
	}
	if req.Subdirectory != nil {
		if err := checkSubdirectory(*req.Subdirectory); err != nil {
			return err
		}
	}
	if req.Notes != nil {
		if err := checkNotes(*req.Notes); err != nil {
			return err
		}
	}
	if req.SharedWith != nil {
		if err := checkSharedWith(*req.SharedWith); err != nil {
			return err
		}
	}
	return nil
}

// ShareDirectory adds grantees to every secret the caller owns in
// subdirectory. Existing grantees are kept; roles are merged with the new
// ones taking precedence.
func (s *SecretService) ShareDirectory(ctx context.Context, id models.Identity, subdirectory string, with models.SharedWith) ([]models.Secret, error) {
	if err := checkIdentity(id); err != nil {
		return nil, err
	}
	if subdirectory == "" {
		return nil, invalid("subdirectory is required")
	}
	if err := checkSubdirectory(subdirectory); err != nil {
		return nil, err
	}
	if len(uniqueNonEmpty(with.Groups)) == 0 && len(uniqueNonEmpty(with.Users)) == 0 {
		return nil, invalid("at least one user or group is required")
	}
	if err := checkSharedWith(with); err != nil {
		return nil, err
	}

	sub := sitekey.Subdirectory(subdirectory)
	owned, err := s.repo.QueryByOwnerPrefix(ctx, id.Subject, "")
	if err != nil {
		return nil, err
	}

	bySecret := make(map[string][]*models.Row)
	for _, r := range owned {
		if rowSubdirectory(r) != sub {
			continue
		}
		k := sitekey.Site(r.Key) + "#" + rowPasswordID(r)
		bySecret[k] = append(bySecret[k], r)
	}
	if len(bySecret) == 0 {
		return nil, common.ErrorNotFound
	}

	keys := make([]string, 0, len(bySecret))
	for k := range bySecret {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := s.now()
	updated := make([]models.Row, 0)
	for _, k := range keys {
		rows := bySecret[k]
		current := newest(rows, func(*models.Row) bool { return true })

		sw := existingGrantees(rows, current)
		sw.Groups = append(sw.Groups, with.Groups...)
		sw.Users = append(sw.Users, with.Users...)
		maps.Copy(sw.Roles, with.Roles)

		tmpl := *current
		tmpl.SharedWithRoles = sw.Roles
		tmpl.Subdirectory = sub
		tmpl.PasswordID = rowPasswordID(current)
		tmpl.Version = maxVersion(rows) + 1
		tmpl.LastModified = now

		desired := fanOut(tmpl, sitekey.Site(current.Key), sub, tmpl.PasswordID, sw)
		if err := s.writer.reconcile(ctx, rows, desired); err != nil {
			s.log.Warn(ctx, "share directory failed", "owner", id.Subject, "subdirectory", sub, "secret", k, "error", err)
			return nil, err
		}
		updated = append(updated, desired...)
	}

	s.log.Info(ctx, "directory shared", "owner", id.Subject, "subdirectory", sub,
		"secrets", len(keys), "groups", len(with.Groups), "users", len(with.Users))

	agg := newAggregator(id.Subject)
	for i := range updated {
		agg.add(&updated[i])
	}
	return agg.result(), nil
}

// secretRows returns the owner's rows of one logical secret, whatever its
// subdirectory.
func (s *SecretService) secretRows(ctx context.Context, owner, site, passwordID string) ([]*models.Row, error) {
	candidates, err := s.repo.QueryByOwnerPrefix(ctx, owner, site+"#")
	if err != nil {
		return nil, err
	}

	var rows []*models.Row
	for _, r := range candidates {
		if sitekey.Site(r.Key) == site && rowPasswordID(r) == passwordID {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func canEdit(id models.Identity, owner string, current *models.Row) bool {
	if owner == id.Subject {
		return true
	}
	return slices.ContainsFunc(id.Groups, func(g string) bool {
		return current.SharedWithRoles[g] == common.RoleEditor
	})
}

// existingGrantees collects the grantees of a secret from its rows; roles
// come from the newest row.
func existingGrantees(rows []*models.Row, current *models.Row) models.SharedWith {
	sw := models.SharedWith{Roles: rolesOrEmpty(current.SharedWithRoles)}
	for _, r := range rows {
		if r.SharedWithGroups != "" && r.SharedWithGroups != common.None {
			sw.Groups = append(sw.Groups, r.SharedWithGroups)
		}
		if r.SharedWithUsers != "" && r.SharedWithUsers != common.None {
			sw.Users = append(sw.Users, r.SharedWithUsers)
		}
	}
	return sw
}

func maxVersion(rows []*models.Row) int64 {
	var v int64
	for _, r := range rows {
		v = max(v, r.Version)
	}
	return v
}
