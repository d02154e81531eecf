package dynamo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/pagination"
)

// maxBatchGet is DynamoDB's limit per BatchGetItem call.
const maxBatchGet = 100

type productRepo struct{ s *Store }

func (r productRepo) Create(ctx context.Context, p *product.Product) error {
	av, err := attributevalue.MarshalMap(toProductRecord(p))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = r.s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		return dbError("put product", err)
	}
	return nil
}

func (r productRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var rec productRecord
	found, err := r.s.get(ctx, pk(typeProduct, id), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, product.ErrProductNotFound
	}
	return rec.product()
}

func (r productRepo) FindByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	out := []*product.Product{}
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))

	for chunk := range slices.Chunk(unique, maxBatchGet) {
		keys := make([]map[string]types.AttributeValue, len(chunk))
		for i, id := range chunk {
			keys[i] = itemKey(pk(typeProduct, id))
		}
		request := map[string]types.KeysAndAttributes{
			r.s.table: {Keys: keys, ConsistentRead: aws.Bool(true)},
		}
		// unprocessed keys come back under throttling; retry until drained
		for len(request) > 0 {
			res, err := r.s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, dbError("batch get products", err)
			}
			var records []productRecord
			if err := attributevalue.UnmarshalListOfMaps(res.Responses[r.s.table], &records); err != nil {
				return nil, fmt.Errorf("unmarshal products: %w", err)
			}
			for _, rec := range records {
				p, err := rec.product()
				if err != nil {
					return nil, err
				}
				out = append(out, p)
			}
			request = res.UnprocessedKeys
		}
	}
	return out, nil
}

// Update touches the editable attributes only, so concurrent stock changes
// from order placement are never overwritten.
func (r productRepo) Update(ctx context.Context, p *product.Product) error {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	u := newUpdate().
		set("name", p.Name).
		set("description", p.Description).
		set("price", p.Price.String()).
		setOrRemove("discount_price", p.DiscountPrice.Decimal.String(), p.DiscountPrice.Valid).
		setOrRemove("discount_starts_at", p.DiscountStartsAt, p.DiscountStartsAt != nil).
		setOrRemove("discount_ends_at", p.DiscountEndsAt, p.DiscountEndsAt != nil).
		set("status", p.Status).
		setOrRemove("category_id", p.CategoryID, p.CategoryID != "").
		set("images", images).
		set("updated_at", p.UpdatedAt)
	return u.apply(ctx, r.s, pk(typeProduct, p.ID), product.ErrProductNotFound)
}

func (r productRepo) SetStock(ctx context.Context, id string, stock int) error {
	return newUpdate().set("stock", stock).apply(ctx, r.s, pk(typeProduct, id), product.ErrProductNotFound)
}

func (r productRepo) UpdateRating(ctx context.Context, id string, rating product.Rating) error {
	u := newUpdate().
		set("rating_average", rating.Average).
		set("rating_count", rating.Count).
		set("rating_distribution", rating.Distribution[:])
	return u.apply(ctx, r.s, pk(typeProduct, id), product.ErrProductNotFound)
}

func (r productRepo) Delete(ctx context.Context, id string) error {
	_, err := r.s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.s.table),
		Key:                 itemKey(pk(typeProduct, id)),
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if isConditionFailed(err) {
		return product.ErrProductNotFound
	}
	if err != nil {
		return dbError("delete product", err)
	}
	return nil
}

func (r productRepo) all(ctx context.Context) ([]*product.Product, error) {
	records, err := queryType[productRecord](ctx, r.s, typeProduct, true)
	if err != nil {
		return nil, err
	}
	out := make([]*product.Product, 0, len(records))
	for _, rec := range records {
		p, err := rec.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// List filters in process; the table has no secondary index per filter.
func (r productRepo) List(ctx context.Context, filter product.Filter) ([]*product.Product, int, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	var matched []*product.Product
	for _, p := range all {
		if filter.Match(p) {
			matched = append(matched, p)
		}
	}
	product.SortProducts(matched, filter.Sort)
	return pagination.Slice(matched, pagination.New(filter.Page, filter.Limit)), len(matched), nil
}

func (r productRepo) LowStock(ctx context.Context, threshold, limit int) ([]*product.Product, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	low := slices.DeleteFunc(all, func(p *product.Product) bool { return p.Stock > threshold })
	slices.SortFunc(low, func(a, b *product.Product) int {
		return cmp.Or(cmp.Compare(a.Stock, b.Stock), strings.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(low) > limit {
		low = low[:limit]
	}
	return low, nil
}

func (r productRepo) Count(ctx context.Context) (int, error) {
	return r.s.countType(ctx, typeProduct)
}
