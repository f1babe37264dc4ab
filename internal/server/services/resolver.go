package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/payload"
	"github.com/dmitrijs2005/runavault/internal/server/sitekey"
)

// resolve finds the row a requester reads for (site, subdirectory). The owner
// path wins over a direct share, which wins over a group share; groups are
// tried in the order the identity lists them.
func (s *SecretService) resolve(ctx context.Context, id models.Identity, site, subdirectory string) (*models.ResolvedSecret, error) {
	sub := sitekey.Subdirectory(subdirectory)
	matches := func(r *models.Row) bool {
		return sitekey.Site(r.Key) == site && rowSubdirectory(r) == sub
	}

	owned, err := s.repo.QueryByOwnerPrefix(ctx, id.Subject, sitekey.Prefix(site, sub)+"#")
	if err != nil {
		return nil, err
	}
	if row := newest(owned, matches); row != nil {
		return resolved(row, row.Payload, models.AccessOwner)
	}

	direct, err := s.repo.QueryByGranteeUser(ctx, id.Subject)
	if err != nil {
		return nil, err
	}
	if row := newest(direct, matches); row != nil {
		return resolved(row, payload.ForUser(row.Payload, id.Subject), models.AccessUser)
	}

	for _, g := range id.Groups {
		shared, err := s.repo.QueryByGranteeGroup(ctx, g, sub)
		if err != nil {
			return nil, err
		}
		if row := newest(shared, matches); row != nil {
			return resolved(row, payload.ForGroup(row.Payload, g), models.AccessGroup)
		}
	}

	return nil, common.ErrorNotFound
}

func resolved(row *models.Row, p string, access models.Access) (*models.ResolvedSecret, error) {
	if row.Payload == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrorIncompleteRecord, row.Key)
	}
	return &models.ResolvedSecret{
		Site:         sitekey.Site(row.Key),
		Username:     row.Username,
		Subdirectory: rowSubdirectory(row),
		Payload:      p,
		OwnerID:      row.OwnerID,
		Access:       access,
	}, nil
}

// newest returns the matching row with the highest version; ties go to the
// smallest (owner, key). Rows of one secret may briefly disagree on version
// after a partial write.
func newest(rows []*models.Row, match func(*models.Row) bool) *models.Row {
	var hits []*models.Row
	for _, r := range rows {
		if match(r) {
			hits = append(hits, r)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Version != hits[j].Version {
			return hits[i].Version > hits[j].Version
		}
		if hits[i].OwnerID != hits[j].OwnerID {
			return hits[i].OwnerID < hits[j].OwnerID
		}
		return hits[i].Key < hits[j].Key
	})
	return hits[0]
}

func rowSubdirectory(r *models.Row) string {
	return sitekey.Subdirectory(r.Subdirectory)
}
