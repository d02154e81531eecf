package dynamo

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/shopspring/decimal"
)

type orderRepo struct{ s *Store }

// stockUpdate moves quantity between stock and sold on one product. With
// requireStock set the update is conditional on enough stock.
func (s *Store) stockUpdate(q order.Quantity, delta int, requireStock bool) types.TransactWriteItem {
	condition := "attribute_exists(#pk)"
	values := map[string]types.AttributeValue{
		":d": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
		":s": &types.AttributeValueMemberN{Value: strconv.Itoa(-delta)},
	}
	if requireStock {
		condition += " AND #stock >= :q"
		values[":q"] = &types.AttributeValueMemberN{Value: strconv.Itoa(q.Quantity)}
	}
	return types.TransactWriteItem{Update: &types.Update{
		TableName:                 aws.String(s.table),
		Key:                       itemKey(pk(typeProduct, q.ProductID)),
		UpdateExpression:          aws.String("SET #stock = #stock + :d, #sold = #sold + :s, #updated_at = :now"),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeNames: map[string]string{
			"#pk":         "pk",
			"#stock":      "stock",
			"#sold":       "sold",
			"#updated_at": "updated_at",
		},
		ExpressionAttributeValues: values,
	}}
}

// Place writes the order and one conditional stock decrement per product in
// a single transaction. The order put is the last item, so a failed
// condition at index i names the i-th product.
func (r orderRepo) Place(ctx context.Context, o *order.Order) error {
	rec, err := toOrderRecord(o)
	if err != nil {
		return err
	}
	put, err := r.s.put(rec, "attribute_not_exists(pk)")
	if err != nil {
		return err
	}

	quantities := o.Quantities()
	now := timeValue(o.CreatedAt)
	items := make([]types.TransactWriteItem, 0, len(quantities)+1)
	for _, q := range quantities {
		item := r.s.stockUpdate(q, -q.Quantity, true)
		item.Update.ExpressionAttributeValues[":now"] = now
		items = append(items, item)
	}
	items = append(items, put)

	err = r.s.transact(ctx, items)
	if failed := failedConditions(err); len(failed) > 0 && failed[0] < len(quantities) {
		return r.shortfall(ctx, quantities[failed[0]])
	}
	if err != nil {
		return dbError("place order", err)
	}
	return nil
}

func (r orderRepo) shortfall(ctx context.Context, q order.Quantity) error {
	var rec productRecord
	found, err := r.s.get(ctx, pk(typeProduct, q.ProductID), &rec)
	if err != nil {
		return err
	}
	if !found {
		return order.ErrProductNotFound
	}
	return &order.StockError{ProductID: q.ProductID, Name: rec.Name, Available: rec.Stock, Requested: q.Quantity}
}

func (r orderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var rec orderRecord
	found, err := r.s.get(ctx, pk(typeOrder, id), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, order.ErrOrderNotFound
	}
	return rec.order()
}

func (r orderRepo) all(ctx context.Context) ([]*order.Order, error) {
	records, err := queryType[orderRecord](ctx, r.s, typeOrder, true)
	if err != nil {
		return nil, err
	}
	out := make([]*order.Order, 0, len(records))
	for _, rec := range records {
		o, err := rec.order()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r orderRepo) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := slices.DeleteFunc(all, func(o *order.Order) bool {
		return (filter.UserID != "" && o.UserID != filter.UserID) ||
			(filter.Status != "" && o.Status != filter.Status)
	})
	slices.SortFunc(matched, func(a, b *order.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return pagination.Slice(matched, pagination.New(filter.Page, filter.Limit)), len(matched), nil
}

// Transition rewrites the order only if its stored status is still from.
// Restocking skips products deleted since, since an update would recreate them.
func (r orderRepo) Transition(ctx context.Context, o *order.Order, from order.Status, restock bool) error {
	rec, err := toOrderRecord(o)
	if err != nil {
		return err
	}
	put, err := r.s.put(rec, "#status = :from")
	if err != nil {
		return err
	}
	put.Put.ExpressionAttributeNames = map[string]string{"#status": "status"}
	put.Put.ExpressionAttributeValues = map[string]types.AttributeValue{
		":from": &types.AttributeValueMemberS{Value: string(from)},
	}
	items := []types.TransactWriteItem{put}

	if restock {
		quantities := o.Quantities()
		ids := make([]string, len(quantities))
		for i, q := range quantities {
			ids[i] = q.ProductID
		}
		existing, err := productRepo(r).FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		now := timeValue(o.UpdatedAt)
		for _, q := range quantities {
			if !slices.ContainsFunc(existing, func(p *product.Product) bool { return p.ID == q.ProductID }) {
				continue
			}
			item := r.s.stockUpdate(q, q.Quantity, false)
			item.Update.ExpressionAttributeValues[":now"] = now
			items = append(items, item)
		}
	}

	err = r.s.transact(ctx, items)
	if slices.Contains(failedConditions(err), 0) {
		if _, getErr := r.GetByID(ctx, o.ID); getErr != nil {
			return getErr
		}
		return order.ErrConcurrentUpdate
	}
	if err != nil {
		return dbError("transition order", err)
	}
	return nil
}

func (r orderRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	all, err := r.all(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(all, func(o *order.Order) bool {
		return o.UserID == userID && o.PaymentStatus == order.PaymentCompleted && o.Contains(productID)
	}), nil
}

func (r orderRepo) Stats(ctx context.Context) (*order.Stats, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	stats := &order.Stats{ByStatus: map[order.Status]int{}, Revenue: decimal.Zero}
	for _, o := range all {
		stats.Count++
		stats.ByStatus[o.Status]++
		if o.PaymentStatus == order.PaymentCompleted {
			stats.Revenue = stats.Revenue.Add(o.GrandTotal)
		}
	}
	return stats, nil
}
