package secrets

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

type rowID struct {
	owner string
	key   string
}

// MemoryRepository keeps rows in process memory. Rows are copied on the way
// in and out so callers never share state with the store.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[rowID]models.Row
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[rowID]models.Row)}
}

func (r *MemoryRepository) PutIfAbsent(ctx context.Context, row *models.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := rowID{owner: row.OwnerID, key: row.Key}
	if _, ok := r.rows[id]; ok {
		return common.ErrorAlreadyExists
	}
	r.rows[id] = cloneRow(row)
	return nil
}

func (r *MemoryRepository) PutOverwrite(ctx context.Context, row *models.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[rowID{owner: row.OwnerID, key: row.Key}] = cloneRow(row)
	return nil
}

func (r *MemoryRepository) GetExact(ctx context.Context, ownerID, key string) (*models.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[rowID{owner: ownerID, key: key}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := cloneRow(&row)
	return &out, nil
}

func (r *MemoryRepository) QueryByOwnerPrefix(ctx context.Context, ownerID, prefix string) ([]*models.Row, error) {
	return r.selectRows(func(row *models.Row) bool {
		return row.OwnerID == ownerID && strings.HasPrefix(row.Key, prefix)
	}), nil
}

func (r *MemoryRepository) QueryByGranteeGroup(ctx context.Context, group, subdirectory string) ([]*models.Row, error) {
	return r.selectRows(func(row *models.Row) bool {
		return row.SharedWithGroups == group && (subdirectory == "" || row.Subdirectory == subdirectory)
	}), nil
}

func (r *MemoryRepository) QueryByGranteeUser(ctx context.Context, user string) ([]*models.Row, error) {
	return r.selectRows(func(row *models.Row) bool {
		return row.SharedWithUsers == user
	}), nil
}

func (r *MemoryRepository) DeleteExact(ctx context.Context, ownerID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, rowID{owner: ownerID, key: key})
	return nil
}

// Len returns the number of stored rows.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func (r *MemoryRepository) selectRows(match func(*models.Row) bool) []*models.Row {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Row
	for _, row := range r.rows {
		if match(&row) {
			c := cloneRow(&row)
			out = append(out, &c)
		}
	}
	sortRows(out)
	return out
}

func cloneRow(row *models.Row) models.Row {
	c := *row
	c.Tags = append([]string(nil), row.Tags...)
	if row.SharedWithRoles != nil {
		c.SharedWithRoles = maps.Clone(row.SharedWithRoles)
	}
	return c
}
