package repomanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrijs2005/runavault/internal/server/repositories/secrets"
)

// tableWaitTimeout bounds how long RunMigrations waits for a new table.
const tableWaitTimeout = 2 * time.Minute

// DynamoTableAPI is the subset of *dynamodb.Client the manager needs.
type DynamoTableAPI interface {
	secrets.DynamoAPI
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoClientConfig holds what is needed to reach DynamoDB. Empty keys use
// the default AWS credential chain; Endpoint overrides the service URL.
type DynamoClientConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// NewDynamoClient builds a DynamoDB client from c.
func NewDynamoClient(ctx context.Context, c DynamoClientConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}

// DynamoRepositoryManager vends the DynamoDB repository and creates its table.
type DynamoRepositoryManager struct {
	client DynamoTableAPI
	repo   *secrets.DynamoRepository
}

func NewDynamoRepositoryManager(client DynamoTableAPI, tablePrefix string) *DynamoRepositoryManager {
	return &DynamoRepositoryManager{
		client: client,
		repo:   secrets.NewDynamoRepository(client, tablePrefix),
	}
}

func (m *DynamoRepositoryManager) Secrets() secrets.Repository { return m.repo }

func (m *DynamoRepositoryManager) Close() error { return nil }

// RunMigrations creates the secrets table with its two grantee indexes when
// it does not exist yet and waits until it is active.
func (m *DynamoRepositoryManager) RunMigrations(ctx context.Context) error {
	table := m.repo.Table()

	_, err := m.client.CreateTable(ctx, tableDefinition(table))
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("dynamodb create table: %w", err)
		}
	}

	w := dynamodb.NewTableExistsWaiter(m.client)
	if err := w.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableWaitTimeout); err != nil {
		return fmt.Errorf("dynamodb wait for table: %w", err)
	}
	return nil
}

func tableDefinition(table string) *dynamodb.CreateTableInput {
	str := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
	}
	index := func(name, hash string) types.GlobalSecondaryIndex {
		return types.GlobalSecondaryIndex{
			IndexName: aws.String(name),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}
	}

	return &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			str(secrets.AttrOwner),
			str(secrets.AttrKey),
			str(secrets.AttrGroup),
			str(secrets.AttrUser),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(secrets.AttrOwner), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(secrets.AttrKey), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			index(secrets.GroupIndex, secrets.AttrGroup),
			index(secrets.UserIndex, secrets.AttrUser),
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}
