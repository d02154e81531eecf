package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/example/ec-shop-api/internal/domain/category"
)

type categoryRepo struct{ s *Store }

func cloneCategory(c *category.Category) *category.Category {
	v := *c
	return &v
}

// slugTaken must be called with the lock held.
func (r categoryRepo) slugTaken(slug, exceptID string) bool {
	for _, c := range r.s.categories {
		if c.Slug == slug && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (r categoryRepo) Create(_ context.Context, c *category.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.slugTaken(c.Slug, "") {
		return category.ErrSlugTaken
	}
	r.s.categories[c.ID] = cloneCategory(c)
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, id string) (*category.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, category.ErrCategoryNotFound
	}
	return cloneCategory(c), nil
}

func (r categoryRepo) GetBySlug(_ context.Context, slug string) (*category.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.categories {
		if c.Slug == slug {
			return cloneCategory(c), nil
		}
	}
	return nil, category.ErrCategoryNotFound
}

func (r categoryRepo) Update(_ context.Context, c *category.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[c.ID]; !ok {
		return category.ErrCategoryNotFound
	}
	if r.slugTaken(c.Slug, c.ID) {
		return category.ErrSlugTaken
	}
	r.s.categories[c.ID] = cloneCategory(c)
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return category.ErrCategoryNotFound
	}
	delete(r.s.categories, id)
	return nil
}

// List returns every category ordered by sort order, then name.
func (r categoryRepo) List(context.Context) ([]*category.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*category.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, cloneCategory(c))
	}
	slices.SortFunc(out, func(a, b *category.Category) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}
