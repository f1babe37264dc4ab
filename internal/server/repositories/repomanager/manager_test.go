package repomanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/runavault/internal/server/config"
	"github.com/dmitrijs2005/runavault/internal/server/repositories/secrets"
)

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	m, err := New(ctx, &config.Config{Store: config.StoreMemory})
	require.NoError(t, err)
	_, ok := m.Secrets().(*secrets.MemoryRepository)
	assert.True(t, ok)
	assert.NoError(t, m.RunMigrations(ctx))
	assert.NoError(t, m.Close())

	m, err = New(ctx, &config.Config{Store: config.StorePostgres, DatabaseDSN: "postgres://u:p@localhost:5432/db"})
	require.NoError(t, err)
	_, ok = m.Secrets().(*secrets.PostgresRepository)
	assert.True(t, ok)
	assert.NoError(t, m.Close())

	m, err = New(ctx, &config.Config{
		Store:              config.StoreDynamoDB,
		TablePrefix:        "T_",
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "k",
		AWSSecretAccessKey: "s",
	})
	require.NoError(t, err)
	repo, ok := m.Secrets().(*secrets.DynamoRepository)
	require.True(t, ok)
	assert.Equal(t, "T_passwords", repo.Table())
}

func TestNew_UnknownStore(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Store: "cassandra"})
	assert.Error(t, err)
}

func TestMemoryManager_SharesOneRepository(t *testing.T) {
	m := NewMemoryRepositoryManager()
	assert.Same(t, m.Secrets(), m.Secrets())
}
