package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

// Table layout shared with the repository manager that creates the table.
const (
	TableSuffix      = "passwords"
	AttrOwner        = "user_id"
	AttrKey          = "site"
	AttrGroup        = "shared_with_groups"
	AttrUser         = "shared_with_users"
	AttrSubdirectory = "subdirectory"
	GroupIndex       = "shared_with_groups-index"
	UserIndex        = "shared_with_users-index"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoRepository.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoRepository stores rows in a DynamoDB table with partition key
// user_id, sort key site and two GSIs over the grantee attributes.
type DynamoRepository struct {
	client DynamoAPI
	table  string
}

// NewDynamoRepository binds a repository to table <tablePrefix>passwords.
func NewDynamoRepository(client DynamoAPI, tablePrefix string) *DynamoRepository {
	return &DynamoRepository{client: client, table: tablePrefix + TableSuffix}
}

// Table returns the full table name.
func (r *DynamoRepository) Table() string { return r.table }

func (r *DynamoRepository) PutIfAbsent(ctx context.Context, row *models.Row) error {
	cond := expression.AttributeNotExists(expression.Name(AttrOwner)).
		And(expression.AttributeNotExists(expression.Name(AttrKey)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("dynamodb condition: %w", err)
	}

	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("dynamodb marshal: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("dynamodb put: %w", err)
	}
	return nil
}

func (r *DynamoRepository) PutOverwrite(ctx context.Context, row *models.Row) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("dynamodb marshal: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put: %w", err)
	}
	return nil
}

func (r *DynamoRepository) GetExact(ctx context.Context, ownerID, key string) (*models.Row, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            primaryKey(ownerID, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, common.ErrorNotFound
	}

	var row models.Row
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return nil, fmt.Errorf("dynamodb unmarshal: %w", err)
	}
	return &row, nil
}

func (r *DynamoRepository) QueryByOwnerPrefix(ctx context.Context, ownerID, prefix string) ([]*models.Row, error) {
	kc := expression.Key(AttrOwner).Equal(expression.Value(ownerID))
	if prefix != "" {
		kc = kc.And(expression.Key(AttrKey).BeginsWith(prefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(kc).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb key condition: %w", err)
	}

	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (r *DynamoRepository) QueryByGranteeGroup(ctx context.Context, group, subdirectory string) ([]*models.Row, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key(AttrGroup).Equal(expression.Value(group)))
	if subdirectory != "" {
		builder = builder.WithFilter(expression.Name(AttrSubdirectory).Equal(expression.Value(subdirectory)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb key condition: %w", err)
	}

	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(GroupIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (r *DynamoRepository) QueryByGranteeUser(ctx context.Context, user string) ([]*models.Row, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(AttrUser).Equal(expression.Value(user))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb key condition: %w", err)
	}

	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(UserIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (r *DynamoRepository) DeleteExact(ctx context.Context, ownerID, key string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       primaryKey(ownerID, key),
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete: %w", err)
	}
	return nil
}

// query walks every page of the query before returning.
func (r *DynamoRepository) query(ctx context.Context, input *dynamodb.QueryInput) ([]*models.Row, error) {
	var result []*models.Row

	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb query: %w", err)
		}

		var rows []*models.Row
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, fmt.Errorf("dynamodb unmarshal: %w", err)
		}
		result = append(result, rows...)
	}

	sortRows(result)
	return result, nil
}

func primaryKey(ownerID, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrOwner: &types.AttributeValueMemberS{Value: ownerID},
		AttrKey:   &types.AttributeValueMemberS{Value: key},
	}
}
