package services

import (
	"context"
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/logging"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/payload"
	"github.com/dmitrijs2005/runavault/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/runavault/internal/server/sitekey"
)

// CreateRequest describes a new secret. Password is either a JSON object
// (the payload envelope) or a JSON string. PasswordID may be set by callers
// that want to retry a create safely; it is generated otherwise.
type CreateRequest struct {
	Site         string
	Username     string
	Password     json.RawMessage
	Encrypted    *bool
	SharedWith   models.SharedWith
	Subdirectory string
	Notes        string
	Tags         []string
	Favorite     bool
	PasswordID   string
}

// EditRequest changes one secret addressed by Ref ("site#password_id").
// OwnerID defaults to the caller. Nil fields keep their current value; a nil
// SharedWith, or a nil list inside it, keeps the current grantees.
type EditRequest struct {
	Ref          string
	OwnerID      string
	Username     *string
	Password     json.RawMessage
	Encrypted    *bool
	Subdirectory *string
	Notes        *string
	Tags         *[]string
	Favorite     *bool
	SharedWith   *models.SharedWith
}

// EditResult is the edited secret. Moved reports a subdirectory change.
type EditResult struct {
	models.Secret
	Moved bool
}

// DeleteRequest selects the rows to delete. A plain Site removes every secret
// of that site in Subdirectory; a reference such as "site#password_id"
// removes only that secret. OwnerID, when set, must be the caller.
type DeleteRequest struct {
	Site         string
	Subdirectory string
	OwnerID      string
}

// SecretService implements the secret operations on top of a row store.
type SecretService struct {
	repo   secrets.Repository
	writer *fanOutWriter
	log    logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewSecretService(repo secrets.Repository, logger logging.Logger) *SecretService {
	log := logger.With("module", "secrets")
	return &SecretService{
		repo:   repo,
		writer: &fanOutWriter{repo: repo, log: log},
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// CreateSecret stores a new secret with one row per grantee.
func (s *SecretService) CreateSecret(ctx context.Context, id models.Identity, req CreateRequest) (*models.Secret, error) {
	if err := checkIdentity(id); err != nil {
		return nil, err
	}
	if err := checkSite(req.Site); err != nil {
		return nil, err
	}
	if req.Username == "" {
		return nil, invalid("username is required")
	}
	if err := checkSubdirectory(req.Subdirectory); err != nil {
		return nil, err
	}
	if err := checkNotes(req.Notes); err != nil {
		return nil, err
	}
	if err := checkSharedWith(req.SharedWith); err != nil {
		return nil, err
	}
	stored, err := payload.Normalize(req.Password)
	if err != nil {
		return nil, err
	}

	passwordID := req.PasswordID
	if passwordID == "" {
		passwordID = s.newID()
	} else if !sitekey.ValidSegment(passwordID) {
		return nil, invalid("invalid password id %q", passwordID)
	}

	encrypted := true
	if req.Encrypted != nil {
		encrypted = *req.Encrypted
	}

	sub := sitekey.Subdirectory(req.Subdirectory)
	tmpl := models.Row{
		OwnerID:         id.Subject,
		Username:        req.Username,
		Payload:         stored,
		Encrypted:       encrypted,
		SharedWithRoles: rolesOrEmpty(req.SharedWith.Roles),
		Subdirectory:    sub,
		LastModified:    s.now(),
		Notes:           req.Notes,
		Tags:            storedTags(req.Tags),
		Favorite:        req.Favorite,
		Version:         1,
		PasswordID:      passwordID,
	}

	rows := fanOut(tmpl, req.Site, sub, passwordID, req.SharedWith)
	if err := s.writer.create(ctx, rows); err != nil {
		s.log.Warn(ctx, "create secret failed", "owner", id.Subject, "site", req.Site, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "secret created", "owner", id.Subject, "site", req.Site, "subdirectory", sub, "rows", len(rows))
	return merged(rows, id.Subject), nil
}

// GetSecret resolves the secret the caller sees at (site, subdirectory).
func (s *SecretService) GetSecret(ctx context.Context, id models.Identity, site, subdirectory string) (*models.ResolvedSecret, error) {
	if err := checkIdentity(id); err != nil {
		return nil, err
	}
	if err := checkSite(site); err != nil {
		return nil, err
	}
	if err := checkSubdirectory(subdirectory); err != nil {
		return nil, err
	}

	return s.resolve(ctx, id, site, subdirectory)
}

// ListSecrets returns every secret the caller owns or can read through a
// direct or group share, one entry per logical secret.
func (s *SecretService) ListSecrets(ctx context.Context, id models.Identity) ([]models.Secret, error) {
	if err := checkIdentity(id); err != nil {
		return nil, err
	}

	agg := newAggregator(id.Subject)

	owned, err := s.repo.QueryByOwnerPrefix(ctx, id.Subject, "")
	if err != nil {
		return nil, err
	}
	agg.add(owned...)

	for _, g := range uniqueNonEmpty(id.Groups) {
		rows, err := s.repo.QueryByGranteeGroup(ctx, g, "")
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.OwnerID != id.Subject {
				agg.add(r)
			}
		}
	}

	direct, err := s.repo.QueryByGranteeUser(ctx, id.Subject)
	if err != nil {
		return nil, err
	}
	agg.add(direct...)

	out := agg.result()
	s.log.Debug(ctx, "secrets listed", "requester", id.Subject, "owned_rows", len(owned), "secrets", len(out))
	return out, nil
}

// DeleteSecret removes every row selected by req from the caller's secrets
// and returns how many rows were removed.
func (s *SecretService) DeleteSecret(ctx context.Context, id models.Identity, req DeleteRequest) (int, error) {
	if err := checkIdentity(id); err != nil {
		return 0, err
	}
	if req.OwnerID != "" && req.OwnerID != id.Subject {
		return 0, common.ErrorPermissionDenied
	}
	if req.Site == "" {
		return 0, invalid("site is required")
	}
	if err := checkSubdirectory(req.Subdirectory); err != nil {
		return 0, err
	}

	site, passwordID, subdirectory := req.Site, "", req.Subdirectory
	if strings.Contains(req.Site, "#") {
		parts := sitekey.Decode(req.Site)
		if parts.PasswordID == "" {
			return 0, invalid("invalid secret reference %q", req.Site)
		}
		site, passwordID = parts.Site, parts.PasswordID
		if subdirectory == "" {
			subdirectory = parts.Subdirectory
		}
	}
	if err := checkSite(site); err != nil {
		return 0, err
	}

	sub := sitekey.Subdirectory(subdirectory)
	match := func(r *models.Row) bool {
		return sitekey.Site(r.Key) == site && rowSubdirectory(r) == sub &&
			(passwordID == "" || rowPasswordID(r) == passwordID)
	}

	rows, err := s.repo.QueryByOwnerPrefix(ctx, id.Subject, site+"#")
	if err != nil {
		return 0, err
	}

	n := 0
	for _, r := range rows {
		if !match(r) {
			continue
		}
		if err := s.repo.DeleteExact(ctx, r.OwnerID, r.Key); err != nil {
			return n, err
		}
		n++
	}
	if n == 0 {
		return 0, common.ErrorNotFound
	}

	s.log.Info(ctx, "secret deleted", "owner", id.Subject, "site", site, "subdirectory", sub, "rows", n)
	return n, nil
}

// merged folds the rows of one logical secret into it.
func merged(rows []models.Row, requester string) *models.Secret {
	agg := newAggregator(requester)
	for i := range rows {
		agg.add(&rows[i])
	}
	out := agg.result()
	return &out[0]
}

func rolesOrEmpty(roles map[string]string) map[string]string {
	if roles == nil {
		return map[string]string{}
	}
	return maps.Clone(roles)
}

// rowPasswordID falls back to the key for rows written without the attribute.
func rowPasswordID(r *models.Row) string {
	if r.PasswordID != "" {
		return r.PasswordID
	}
	return sitekey.Decode(r.Key).PasswordID
}
