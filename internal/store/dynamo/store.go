// Package dynamo implements the repositories on a single DynamoDB table.
// Multi-item writes (order placement, status changes with restock, unique
// markers) use TransactWriteItems with condition expressions.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
	"go.uber.org/zap"
)

const (
	gsi1             = "GSI1"
	tableWaitTimeout = 2 * time.Minute
)

// maxTransactItems is DynamoDB's limit per TransactWriteItems call.
const maxTransactItems = 100

type Options struct {
	Region string
	Table  string
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string
}

type Store struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return New(client, opts.Table, logger), nil
}

func New(client *dynamodb.Client, table string, logger *zap.Logger) *Store {
	return &Store{client: client, table: table, logger: logger.Named("dynamodb")}
}

func (s *Store) Users() user.Repository          { return userRepo{s} }
func (s *Store) Products() product.Repository    { return productRepo{s} }
func (s *Store) Categories() category.Repository { return categoryRepo{s} }
func (s *Store) Carts() cart.Repository          { return cartRepo{s} }
func (s *Store) Wishlists() wishlist.Repository  { return wishlistRepo{s} }
func (s *Store) Orders() order.Repository        { return orderRepo{s} }
func (s *Store) Reviews() review.Repository      { return reviewRepo{s} }

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return dbError("describe table", err)
	}
	return nil
}

// Migrate creates the table and its index if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("gsi1pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("gsi1sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(gsi1),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("gsi1pk"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("gsi1sk"), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		s.logger.Info("table already exists", zap.String("table", s.table))
		return nil
	}
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, tableWaitTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", s.table, err)
	}
	s.logger.Info("table created", zap.String("table", s.table))
	return nil
}

func (s *Store) Close() error { return nil }

func itemKey(pkValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pkValue},
		"sk": &types.AttributeValueMemberS{Value: skMeta},
	}
}

// get loads one item into out. It reports false when the item does not exist.
func (s *Store) get(ctx context.Context, pkValue string, out any) (bool, error) {
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            itemKey(pkValue),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, dbError("get item", err)
	}
	if len(res.Item) == 0 {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", pkValue, err)
	}
	return true, nil
}

// queryType reads every record of one type from the index, oldest first
// unless newestFirst is set.
func queryType[T any](ctx context.Context, s *Store, itemType string, newestFirst bool) ([]T, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(gsi1),
		KeyConditionExpression: aws.String("gsi1pk = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: itemType},
		},
		ScanIndexForward: aws.Bool(!newestFirst),
	})

	var out []T
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, dbError("query "+strings.ToLower(itemType), err)
		}
		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal %s records: %w", strings.ToLower(itemType), err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// countType counts records of one type without reading them.
func (s *Store) countType(ctx context.Context, itemType string) (int, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(gsi1),
		KeyConditionExpression: aws.String("gsi1pk = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: itemType},
		},
		Select: types.SelectCount,
	})

	total := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, dbError("count "+strings.ToLower(itemType), err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func (s *Store) put(record any, condition string) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal record: %w", err)
	}
	put := &types.Put{TableName: aws.String(s.table), Item: av}
	if condition != "" {
		put.ConditionExpression = aws.String(condition)
	}
	return types.TransactWriteItem{Put: put}, nil
}

func (s *Store) del(pkValue string) types.TransactWriteItem {
	return types.TransactWriteItem{Delete: &types.Delete{TableName: aws.String(s.table), Key: itemKey(pkValue)}}
}

func (s *Store) transact(ctx context.Context, items []types.TransactWriteItem) error {
	if len(items) > maxTransactItems {
		return apperr.Validation(fmt.Sprintf("too many items in one write (%d, max %d)", len(items), maxTransactItems))
	}
	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return err
}

// failedConditions returns the indexes of the transaction items whose
// condition failed, or nil when err is not a condition failure.
func failedConditions(err error) []int {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return nil
	}
	var failed []int
	for i, reason := range canceled.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			failed = append(failed, i)
		}
	}
	return failed
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func dbError(op string, err error) error {
	return apperr.Upstream("database error", fmt.Errorf("%s: %w", op, err))
}

// update builds an UpdateItem expression. Every attribute goes through a
// name placeholder since many of ours (name, status) are reserved words.
type update struct {
	sets    []string
	removes []string
	names   map[string]string
	values  map[string]types.AttributeValue
	err     error
}

func newUpdate() *update {
	return &update{names: map[string]string{}, values: map[string]types.AttributeValue{}}
}

func (u *update) set(attr string, v any) *update {
	av, err := attributevalue.Marshal(v)
	if err != nil && u.err == nil {
		u.err = fmt.Errorf("marshal %s: %w", attr, err)
	}
	u.names["#"+attr] = attr
	u.values[":"+attr] = av
	u.sets = append(u.sets, fmt.Sprintf("#%s = :%s", attr, attr))
	return u
}

func (u *update) remove(attr string) *update {
	u.names["#"+attr] = attr
	u.removes = append(u.removes, "#"+attr)
	return u
}

// setOrRemove sets attr when present is true and removes it otherwise.
func (u *update) setOrRemove(attr string, v any, present bool) *update {
	if present {
		return u.set(attr, v)
	}
	return u.remove(attr)
}

func (u *update) expression() string {
	var parts []string
	if len(u.sets) > 0 {
		parts = append(parts, "SET "+strings.Join(u.sets, ", "))
	}
	if len(u.removes) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(u.removes, ", "))
	}
	return strings.Join(parts, " ")
}

// apply runs the update on an existing item; a missing item yields sentinel.
func (u *update) apply(ctx context.Context, s *Store, pkValue string, sentinel error) error {
	if u.err != nil {
		return u.err
	}
	u.names["#pk"] = "pk"
	values := u.values
	if len(values) == 0 {
		values = nil
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       itemKey(pkValue),
		UpdateExpression:          aws.String(u.expression()),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  u.names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return sentinel
	}
	if err != nil {
		return dbError("update item", err)
	}
	return nil
}

func timeValue(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: t.Format(time.RFC3339Nano)}
}
