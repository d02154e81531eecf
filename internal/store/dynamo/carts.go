package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
)

type cartRepo struct{ s *Store }

func (r cartRepo) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var rec cartRecord
	found, err := r.s.get(ctx, pk(typeCart, userID), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, cart.ErrCartNotFound
	}
	return rec.cart()
}

func (r cartRepo) Save(ctx context.Context, c *cart.Cart) error {
	rec, err := toCartRecord(c)
	if err != nil {
		return err
	}
	return r.s.putItem(ctx, rec)
}

func (r cartRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.s.table),
		Key:                 itemKey(pk(typeCart, userID)),
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if isConditionFailed(err) {
		return cart.ErrCartNotFound
	}
	if err != nil {
		return dbError("delete cart", err)
	}
	return nil
}

type wishlistRepo struct{ s *Store }

func (r wishlistRepo) Get(ctx context.Context, userID string) (*wishlist.Wishlist, error) {
	var rec wishlistRecord
	found, err := r.s.get(ctx, pk(typeWishlist, userID), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, wishlist.ErrWishlistNotFound
	}
	return &wishlist.Wishlist{UserID: rec.UserID, ProductIDs: rec.ProductIDs, UpdatedAt: rec.UpdatedAt}, nil
}

func (r wishlistRepo) Save(ctx context.Context, w *wishlist.Wishlist) error {
	ids := w.ProductIDs
	if ids == nil {
		ids = []string{}
	}
	return r.s.putItem(ctx, wishlistRecord{
		itemKeys:   itemKeys{PK: pk(typeWishlist, w.UserID), SK: skMeta},
		UserID:     w.UserID,
		ProductIDs: ids,
		UpdatedAt:  w.UpdatedAt,
	})
}

// putItem overwrites a whole record unconditionally.
func (s *Store) putItem(ctx context.Context, record any) error {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av})
	if err != nil {
		return dbError("put item", err)
	}
	return nil
}
