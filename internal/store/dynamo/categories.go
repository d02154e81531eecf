package dynamo

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-shop-api/internal/domain/category"
)

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(ctx context.Context, c *category.Category) error {
	record, err := r.s.put(toCategoryRecord(c), "attribute_not_exists(pk)")
	if err != nil {
		return err
	}
	marker, err := r.s.put(newMarker(typeSlug, c.Slug, c.ID), "attribute_not_exists(pk)")
	if err != nil {
		return err
	}

	err = r.s.transact(ctx, []types.TransactWriteItem{record, marker})
	if slices.Contains(failedConditions(err), 1) {
		return category.ErrSlugTaken
	}
	if err != nil {
		return dbError("create category", err)
	}
	return nil
}

func (r categoryRepo) GetByID(ctx context.Context, id string) (*category.Category, error) {
	var rec categoryRecord
	found, err := r.s.get(ctx, pk(typeCategory, id), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, category.ErrCategoryNotFound
	}
	return rec.category(), nil
}

func (r categoryRepo) GetBySlug(ctx context.Context, slug string) (*category.Category, error) {
	var marker markerRecord
	found, err := r.s.get(ctx, pk(typeSlug, slug), &marker)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, category.ErrCategoryNotFound
	}
	return r.GetByID(ctx, marker.Owner)
}

func (r categoryRepo) Update(ctx context.Context, c *category.Category) error {
	current, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}

	record, err := r.s.put(toCategoryRecord(c), "attribute_exists(pk)")
	if err != nil {
		return err
	}
	items := []types.TransactWriteItem{record}
	if current.Slug != c.Slug {
		marker, err := r.s.put(newMarker(typeSlug, c.Slug, c.ID), "attribute_not_exists(pk)")
		if err != nil {
			return err
		}
		items = append(items, marker, r.s.del(pk(typeSlug, current.Slug)))
	}

	err = r.s.transact(ctx, items)
	failed := failedConditions(err)
	switch {
	case slices.Contains(failed, 1):
		return category.ErrSlugTaken
	case slices.Contains(failed, 0):
		return category.ErrCategoryNotFound
	case err != nil:
		return dbError("update category", err)
	}
	return nil
}

func (r categoryRepo) Delete(ctx context.Context, id string) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = r.s.transact(ctx, []types.TransactWriteItem{
		r.s.del(pk(typeCategory, id)),
		r.s.del(pk(typeSlug, current.Slug)),
	})
	if err != nil {
		return dbError("delete category", err)
	}
	return nil
}

func (r categoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	records, err := queryType[categoryRecord](ctx, r.s, typeCategory, false)
	if err != nil {
		return nil, err
	}
	out := make([]*category.Category, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.category())
	}
	slices.SortFunc(out, func(a, b *category.Category) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}
