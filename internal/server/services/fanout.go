package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/logging"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/runavault/internal/server/sitekey"
)

// granteeSides returns the group and user sides of a row set. Each side is
// de-duplicated in input order; NONE appears only when a side is otherwise
// empty.
func granteeSides(sw models.SharedWith) (groups, users []string) {
	return side(sw.Groups), side(sw.Users)
}

func side(ids []string) []string {
	out := uniqueNonEmpty(ids)
	if len(out) == 0 {
		return []string{common.None}
	}
	return out
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == common.None {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// fanOut expands a row template into one row per grantee: group rows first,
// then user rows.
func fanOut(tmpl models.Row, site, subdirectory, passwordID string, sw models.SharedWith) []models.Row {
	groups, users := granteeSides(sw)

	rows := make([]models.Row, 0, len(groups)+len(users))
	for _, g := range groups {
		key := sitekey.Encode(site, subdirectory, passwordID, sitekey.KindGroup, g)
		rows = append(rows, tmpl.WithGrantee(key, g, common.None))
	}
	for _, u := range users {
		key := sitekey.Encode(site, subdirectory, passwordID, sitekey.KindUser, u)
		rows = append(rows, tmpl.WithGrantee(key, common.None, u))
	}
	return rows
}

// fanOutWriter applies row sets to the store.
type fanOutWriter struct {
	repo secrets.Repository
	log  logging.Logger
}

// create writes a brand new row set. Every row must be absent; on any failure
// the rows written so far by this call are removed before the error is
// returned. The first row is read back to confirm the write.
func (w *fanOutWriter) create(ctx context.Context, rows []models.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: empty row set", common.ErrorInternal)
	}

	written := make([]models.Row, 0, len(rows))
	for i := range rows {
		if err := w.repo.PutIfAbsent(ctx, &rows[i]); err != nil {
			w.rollback(ctx, written)
			if errors.Is(err, common.ErrorAlreadyExists) {
				return fmt.Errorf("%w: %s", common.ErrorDuplicateSecret, rows[i].Key)
			}
			return fmt.Errorf("error writing row: %w", err)
		}
		written = append(written, rows[i])
	}

	first := rows[0]
	if _, err := w.repo.GetExact(ctx, first.OwnerID, first.Key); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: %s", common.ErrorInconsistentWrite, first.Key)
		}
		return fmt.Errorf("error confirming write: %w", err)
	}
	return nil
}

// rollback runs detached from ctx so a cancelled request still cleans up.
func (w *fanOutWriter) rollback(ctx context.Context, rows []models.Row) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range rows {
		if err := w.repo.DeleteExact(ctx, r.OwnerID, r.Key); err != nil {
			w.log.Warn(ctx, "rollback delete failed", "owner", r.OwnerID, "key", r.Key, "error", err)
		}
	}
}

// reconcile turns the current rows of one logical secret into desired.
// Keys present in both are overwritten, new keys are written conditionally
// and current rows that are no longer desired are deleted last.
func (w *fanOutWriter) reconcile(ctx context.Context, current []*models.Row, desired []models.Row) error {
	existing := make(map[string]struct{}, len(current))
	for _, r := range current {
		existing[r.OwnerID+"\x00"+r.Key] = struct{}{}
	}

	keep := make(map[string]struct{}, len(desired))
	for i := range desired {
		row := &desired[i]
		id := row.OwnerID + "\x00" + row.Key
		keep[id] = struct{}{}

		if _, ok := existing[id]; ok {
			if err := w.repo.PutOverwrite(ctx, row); err != nil {
				return fmt.Errorf("error writing row: %w", err)
			}
			continue
		}
		if err := w.repo.PutIfAbsent(ctx, row); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return fmt.Errorf("%w: %s", common.ErrorDuplicateSecret, row.Key)
			}
			return fmt.Errorf("error writing row: %w", err)
		}
	}

	for _, r := range current {
		if _, ok := keep[r.OwnerID+"\x00"+r.Key]; ok {
			continue
		}
		if err := w.repo.DeleteExact(ctx, r.OwnerID, r.Key); err != nil {
			return fmt.Errorf("error deleting row: %w", err)
		}
	}
	return nil
}
