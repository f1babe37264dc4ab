package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

type fakeDynamo struct {
	DynamoAPI

	putErr  error
	puts    []*dynamodb.PutItemInput
	getItem map[string]types.AttributeValue
	gets    []*dynamodb.GetItemInput
	pages   []*dynamodb.QueryOutput
	queries []*dynamodb.QueryInput
	deletes []*dynamodb.DeleteItemInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, in)
	return &dynamodb.GetItemOutput{Item: f.getItem}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if len(f.pages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	return &dynamodb.DeleteItemOutput{}, nil
}

func dynRow(owner, key string) *models.Row {
	return &models.Row{
		OwnerID:          owner,
		Key:              key,
		Username:         "alice",
		Payload:          `{"encryptedPassword":"c"}`,
		SharedWithRoles:  map[string]string{"eng": "viewer"},
		Subdirectory:     "default",
		LastModified:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Tags:             []string{"NONE"},
		Version:          1,
		PasswordID:       "p1",
		SharedWithGroups: "NONE",
		SharedWithUsers:  "NONE",
	}
}

func mustItem(t *testing.T, row *models.Row) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(row)
	require.NoError(t, err)
	return item
}

func attrS(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	v, ok := item[name].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s is not a string", name)
	return v.Value
}

func TestDynamoRepository_Table(t *testing.T) {
	r := NewDynamoRepository(&fakeDynamo{}, "RunaVault_")
	assert.Equal(t, "RunaVault_passwords", r.Table())
}

func TestDynamoRepository_PutIfAbsent(t *testing.T) {
	f := &fakeDynamo{}
	r := NewDynamoRepository(f, "T_")

	require.NoError(t, r.PutIfAbsent(context.Background(), dynRow("u1", "github.com#p1#user:NONE")))
	require.Len(t, f.puts, 1)

	in := f.puts[0]
	assert.Equal(t, "T_passwords", aws.ToString(in.TableName))
	require.NotNil(t, in.ConditionExpression)
	assert.Contains(t, *in.ConditionExpression, "attribute_not_exists")
	assert.Equal(t, "u1", attrS(t, in.Item, AttrOwner))
	assert.Equal(t, "github.com#p1#user:NONE", attrS(t, in.Item, AttrKey))

	tags, ok := in.Item["tags"].(*types.AttributeValueMemberSS)
	require.True(t, ok, "tags must be a string set")
	assert.Equal(t, []string{"NONE"}, tags.Value)
}

func TestDynamoRepository_PutIfAbsent_ConditionFailed(t *testing.T) {
	f := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{Message: aws.String("exists")}}
	r := NewDynamoRepository(f, "T_")

	err := r.PutIfAbsent(context.Background(), dynRow("u1", "k"))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestDynamoRepository_PutOverwrite_NoCondition(t *testing.T) {
	f := &fakeDynamo{}
	r := NewDynamoRepository(f, "T_")

	require.NoError(t, r.PutOverwrite(context.Background(), dynRow("u1", "k")))
	require.Len(t, f.puts, 1)
	assert.Nil(t, f.puts[0].ConditionExpression)
}

func TestDynamoRepository_PutOverwrite_Error(t *testing.T) {
	f := &fakeDynamo{putErr: errors.New("throttled")}
	r := NewDynamoRepository(f, "T_")

	err := r.PutOverwrite(context.Background(), dynRow("u1", "k"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dynamodb put: throttled")
}

func TestDynamoRepository_GetExact(t *testing.T) {
	want := dynRow("u1", "github.com#p1#user:NONE")
	f := &fakeDynamo{getItem: mustItem(t, want)}
	r := NewDynamoRepository(f, "T_")

	got, err := r.GetExact(context.Background(), "u1", "github.com#p1#user:NONE")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, f.gets, 1)
	assert.True(t, aws.ToBool(f.gets[0].ConsistentRead))
	assert.Equal(t, "u1", attrS(t, f.gets[0].Key, AttrOwner))
}

func TestDynamoRepository_GetExact_Missing(t *testing.T) {
	r := NewDynamoRepository(&fakeDynamo{}, "T_")

	_, err := r.GetExact(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDynamoRepository_QueryByOwnerPrefix_Paginates(t *testing.T) {
	f := &fakeDynamo{
		pages: []*dynamodb.QueryOutput{
			{
				Items:            []map[string]types.AttributeValue{mustItem(t, dynRow("u1", "b#p2#user:NONE"))},
				LastEvaluatedKey: map[string]types.AttributeValue{AttrOwner: &types.AttributeValueMemberS{Value: "u1"}},
			},
			{
				Items: []map[string]types.AttributeValue{mustItem(t, dynRow("u1", "a#p1#user:NONE"))},
			},
		},
	}
	r := NewDynamoRepository(f, "T_")

	rows, err := r.QueryByOwnerPrefix(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a#p1#user:NONE", rows[0].Key)
	assert.Equal(t, "b#p2#user:NONE", rows[1].Key)

	require.Len(t, f.queries, 2)
	assert.Nil(t, f.queries[0].ExclusiveStartKey)
	assert.NotNil(t, f.queries[1].ExclusiveStartKey)
	assert.Nil(t, f.queries[0].IndexName)
	assert.NotContains(t, aws.ToString(f.queries[0].KeyConditionExpression), "begins_with")
}

func TestDynamoRepository_QueryByOwnerPrefix_WithPrefix(t *testing.T) {
	f := &fakeDynamo{}
	r := NewDynamoRepository(f, "T_")

	_, err := r.QueryByOwnerPrefix(context.Background(), "u1", "github.com#")
	require.NoError(t, err)
	require.Len(t, f.queries, 1)
	assert.Contains(t, aws.ToString(f.queries[0].KeyConditionExpression), "begins_with")
}

func TestDynamoRepository_QueryByGranteeGroup(t *testing.T) {
	f := &fakeDynamo{}
	r := NewDynamoRepository(f, "T_")

	_, err := r.QueryByGranteeGroup(context.Background(), "eng", "")
	require.NoError(t, err)
	_, err = r.QueryByGranteeGroup(context.Background(), "eng", "work")
	require.NoError(t, err)

	require.Len(t, f.queries, 2)
	assert.Equal(t, GroupIndex, aws.ToString(f.queries[0].IndexName))
	assert.Nil(t, f.queries[0].FilterExpression)
	assert.NotNil(t, f.queries[1].FilterExpression)
}

func TestDynamoRepository_QueryByGranteeUser(t *testing.T) {
	f := &fakeDynamo{
		pages: []*dynamodb.QueryOutput{{
			Items: []map[string]types.AttributeValue{
				mustItem(t, dynRow("u9", "x#p1#user:u2")),
				mustItem(t, dynRow("u1", "y#p2#user:u2")),
			},
		}},
	}
	r := NewDynamoRepository(f, "T_")

	rows, err := r.QueryByGranteeUser(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u1", rows[0].OwnerID)
	assert.Equal(t, UserIndex, aws.ToString(f.queries[0].IndexName))
}

func TestDynamoRepository_DeleteExact(t *testing.T) {
	f := &fakeDynamo{}
	r := NewDynamoRepository(f, "T_")

	require.NoError(t, r.DeleteExact(context.Background(), "u1", "k"))
	require.Len(t, f.deletes, 1)
	assert.Equal(t, "k", attrS(t, f.deletes[0].Key, AttrKey))
}
