// Package dynamo is a DocumentStore on a single DynamoDB table.
//
// Items are keyed PK=USER#<user>, SK=<COLLECTION>#<id>; the record's
// top-level fields are stored as attributes next to the keys.
package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/store"
	"go.uber.org/zap"
)

// Reserved attribute names.
const (
	AttrPK         = "PK"
	AttrSK         = "SK"
	AttrEntityType = "EntityType"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Documents implements store.DocumentStore.
type Documents struct {
	client API
	table  string
	logger *zap.Logger
}

// New returns a store over table.
func New(client API, table string, logger *zap.Logger) *Documents {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Documents{client: client, table: table, logger: logger}
}

// PartitionKey returns the PK value of a user.
func PartitionKey(user string) string { return "USER#" + user }

// SortKey returns the SK value of a document.
func SortKey(collection, id string) string {
	return strings.ToUpper(collection) + "#" + id
}

func entityType(collection string) string { return strings.ToUpper(collection) }

// Key builds the primary key of p.
func Key(p store.Path) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: PartitionKey(p.User)},
		AttrSK: &types.AttributeValueMemberS{Value: SortKey(p.Collection, p.ID)},
	}
}

// ToItem converts a record to a full item, keys included. Record fields
// named like the reserved attributes are overwritten.
func ToItem(p store.Path, rec domain.Record) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(map[string]any(rec))
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	for k, v := range Key(p) {
		item[k] = v
	}
	item[AttrEntityType] = &types.AttributeValueMemberS{Value: entityType(p.Collection)}
	return item, nil
}

// FromItem converts an item back to a record without the reserved attributes.
func FromItem(item map[string]types.AttributeValue) (domain.Record, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	delete(m, AttrPK)
	delete(m, AttrSK)
	delete(m, AttrEntityType)
	return domain.Record(m), nil
}

// UpdateExpression sets every top-level field of rec, plus the entity type.
func UpdateExpression(collection string, rec domain.Record) (expression.Expression, error) {
	fields := make([]string, 0, len(rec))
	for k := range rec {
		if k == AttrPK || k == AttrSK || k == AttrEntityType {
			continue
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)

	update := expression.Set(expression.Name(AttrEntityType), expression.Value(entityType(collection)))
	for _, k := range fields {
		// Record keys are attribute names, never document paths.
		update = update.Set(expression.NameNoDotSplit(k), expression.Value(rec[k]))
	}
	return expression.NewBuilder().WithUpdate(update).Build()
}

func (d *Documents) Get(ctx context.Context, p store.Path) (store.Document, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            Key(p),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", p.Collection, p.ID, err)
	}
	if out.Item == nil {
		return store.Document{}, nil
	}
	rec, err := FromItem(out.Item)
	if err != nil {
		return store.Document{}, err
	}
	return store.Document{Exists: true, Data: rec}, nil
}

func (d *Documents) Set(ctx context.Context, p store.Path, data domain.Record, opts store.SetOptions) error {
	if !opts.Merge {
		item, err := ToItem(p, data)
		if err != nil {
			return err
		}
		if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(d.table),
			Item:      item,
		}); err != nil {
			return fmt.Errorf("put %s/%s: %w", p.Collection, p.ID, err)
		}
		return nil
	}

	expr, err := UpdateExpression(p.Collection, data)
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.table),
		Key:                       Key(p),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}); err != nil {
		return fmt.Errorf("update %s/%s: %w", p.Collection, p.ID, err)
	}
	d.logger.Debug("document merged",
		zap.String("user", p.User),
		zap.String("collection", p.Collection),
		zap.String("id", p.ID),
		zap.Int("fields", len(data)))
	return nil
}

func (d *Documents) Delete(ctx context.Context, p store.Path) error {
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       Key(p),
	}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", p.Collection, p.ID, err)
	}
	return nil
}

// List queries one collection, newest sort key first. Documents ids that
// are ISO dates therefore come back newest first.
func (d *Documents) List(ctx context.Context, user, collection string, limit int) ([]domain.Record, error) {
	keyCond := expression.Key(AttrPK).Equal(expression.Value(PartitionKey(user))).
		And(expression.Key(AttrSK).BeginsWith(SortKey(collection, "")))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(d.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := d.client.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	recs := make([]domain.Record, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := FromItem(item)
		if err != nil {
			d.logger.Warn("skipping unreadable item", zap.String("collection", collection), zap.Error(err))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
