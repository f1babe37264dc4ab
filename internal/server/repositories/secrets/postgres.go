package secrets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/dbx"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

const rowColumns = `user_id, site, username, password, encrypted, shared_with_roles, subdirectory,
		last_modified, notes, tags, favorite, version, password_id, shared_with_groups, shared_with_users`

// PostgresRepository implements row storage over a dbx.DBTX (*sql.DB or *sql.Tx).
// The table mirrors the key-value layout: primary key (user_id, site) and one
// index per grantee column.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// PutIfAbsent inserts the row; an existing (user_id, site) yields
// common.ErrorAlreadyExists.
func (r *PostgresRepository) PutIfAbsent(ctx context.Context, row *models.Row) error {
	query := `INSERT INTO secret_rows (` + rowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, site) DO NOTHING`

	n, err := r.exec(ctx, query, row)
	if err != nil {
		return err
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorAlreadyExists
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// PutOverwrite upserts the row.
func (r *PostgresRepository) PutOverwrite(ctx context.Context, row *models.Row) error {
	query := `INSERT INTO secret_rows (` + rowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, site)
		DO UPDATE SET
			username = EXCLUDED.username,
			password = EXCLUDED.password,
			encrypted = EXCLUDED.encrypted,
			shared_with_roles = EXCLUDED.shared_with_roles,
			subdirectory = EXCLUDED.subdirectory,
			last_modified = EXCLUDED.last_modified,
			notes = EXCLUDED.notes,
			tags = EXCLUDED.tags,
			favorite = EXCLUDED.favorite,
			version = EXCLUDED.version,
			password_id = EXCLUDED.password_id,
			shared_with_groups = EXCLUDED.shared_with_groups,
			shared_with_users = EXCLUDED.shared_with_users`

	_, err := r.exec(ctx, query, row)
	return err
}

func (r *PostgresRepository) GetExact(ctx context.Context, ownerID, key string) (*models.Row, error) {
	query := `SELECT ` + rowColumns + ` FROM secret_rows
		WHERE user_id = $1 AND site = $2`

	row, err := scanRow(r.db.QueryRowContext(ctx, query, ownerID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) QueryByOwnerPrefix(ctx context.Context, ownerID, prefix string) ([]*models.Row, error) {
	query := `SELECT ` + rowColumns + ` FROM secret_rows
		WHERE user_id = $1 AND starts_with(site, $2)
		ORDER BY site`
	return r.query(ctx, query, ownerID, prefix)
}

func (r *PostgresRepository) QueryByGranteeGroup(ctx context.Context, group, subdirectory string) ([]*models.Row, error) {
	query := `SELECT ` + rowColumns + ` FROM secret_rows
		WHERE shared_with_groups = $1 AND ($2 = '' OR subdirectory = $2)
		ORDER BY user_id, site`
	return r.query(ctx, query, group, subdirectory)
}

func (r *PostgresRepository) QueryByGranteeUser(ctx context.Context, user string) ([]*models.Row, error) {
	query := `SELECT ` + rowColumns + ` FROM secret_rows
		WHERE shared_with_users = $1
		ORDER BY user_id, site`
	return r.query(ctx, query, user)
}

func (r *PostgresRepository) DeleteExact(ctx context.Context, ownerID, key string) error {
	query := `DELETE FROM secret_rows WHERE user_id = $1 AND site = $2`
	if _, err := r.db.ExecContext(ctx, query, ownerID, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, row *models.Row) (int64, error) {
	roles, err := json.Marshal(row.SharedWithRoles)
	if err != nil {
		return 0, fmt.Errorf("encode roles: %w", err)
	}
	tags, err := json.Marshal(row.Tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query,
		row.OwnerID, row.Key, row.Username, row.Payload, row.Encrypted, roles, row.Subdirectory,
		row.LastModified, row.Notes, tags, row.Favorite, row.Version, row.PasswordID,
		row.SharedWithGroups, row.SharedWithUsers)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Row, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select rows: %w", err)
	}
	defer rows.Close()

	var result []*models.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*models.Row, error) {
	var (
		row   models.Row
		roles []byte
		tags  []byte
	)
	if err := s.Scan(
		&row.OwnerID, &row.Key, &row.Username, &row.Payload, &row.Encrypted, &roles, &row.Subdirectory,
		&row.LastModified, &row.Notes, &tags, &row.Favorite, &row.Version, &row.PasswordID,
		&row.SharedWithGroups, &row.SharedWithUsers,
	); err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &row.SharedWithRoles); err != nil {
			return nil, fmt.Errorf("decode roles: %w", err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &row.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &row, nil
}
