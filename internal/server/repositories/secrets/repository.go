// Package secrets declares the record store for secret rows and provides its
// DynamoDB, PostgreSQL and in-memory implementations.
package secrets

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/runavault/internal/server/models"
)

// Repository stores physical secret rows keyed by (owner id, composite key).
//
// Query methods exhaust pagination before returning and sort their result by
// owner id, then key. A missing row is reported by GetExact as
// common.ErrorNotFound; a conditional put conflict by PutIfAbsent as
// common.ErrorAlreadyExists.
type Repository interface {
	// PutIfAbsent writes row only when no row exists at (row.OwnerID, row.Key).
	PutIfAbsent(ctx context.Context, row *models.Row) error

	// PutOverwrite upserts row unconditionally. Use only for keys known to
	// belong to the same logical secret.
	PutOverwrite(ctx context.Context, row *models.Row) error

	GetExact(ctx context.Context, ownerID, key string) (*models.Row, error)

	// QueryByOwnerPrefix returns the owner's rows whose key begins with
	// prefix; an empty prefix returns all of them.
	QueryByOwnerPrefix(ctx context.Context, ownerID, prefix string) ([]*models.Row, error)

	// QueryByGranteeGroup returns rows shared with group. A non-empty
	// subdirectory restricts the result to that subdirectory.
	QueryByGranteeGroup(ctx context.Context, group, subdirectory string) ([]*models.Row, error)

	QueryByGranteeUser(ctx context.Context, user string) ([]*models.Row, error)

	// DeleteExact removes one row. Deleting a missing row is not an error.
	DeleteExact(ctx context.Context, ownerID, key string) error
}

func sortRows(rows []*models.Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OwnerID != rows[j].OwnerID {
			return rows[i].OwnerID < rows[j].OwnerID
		}
		return rows[i].Key < rows[j].Key
	})
}
