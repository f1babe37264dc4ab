// Package repomanager selects the record store backend and prepares its
// schema: goose migrations for PostgreSQL, table creation for DynamoDB.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/runavault/internal/server/config"
	"github.com/dmitrijs2005/runavault/internal/server/repositories/secrets"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Secrets() secrets.Repository
	Close() error
}

// New builds the manager for cfg.Store.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := OpenPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresRepositoryManager(db)
	case config.StoreDynamoDB:
		client, err := NewDynamoClient(ctx, DynamoClientConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.DynamoEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return NewDynamoRepositoryManager(client, cfg.TablePrefix), nil
	case config.StoreMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// MemoryRepositoryManager keeps every row in process memory; data is lost on
// restart.
type MemoryRepositoryManager struct {
	repo *secrets.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: secrets.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Secrets() secrets.Repository { return m.repo }

func (m *MemoryRepositoryManager) Close() error { return nil }
