package category

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
)

var (
	ErrCategoryNotFound = apperr.NotFound("category not found")
	ErrInvalidName      = apperr.Validation("name is required")
	ErrInvalidSlug      = apperr.Validation("slug may only contain lowercase letters, digits and single hyphens")
	ErrSlugTaken        = apperr.Conflict("slug is already in use")
	ErrParentNotFound   = apperr.Validation("parent category does not exist")
	ErrInvalidParent    = apperr.Validation("a category cannot be its own ancestor")
	ErrHasChildren      = apperr.Conflict("category has subcategories")
)

// slugRegex validates slug format (lowercase letters, numbers, hyphens)
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	slugHyphenRuns   = regexp.MustCompile(`-+`)
)

// Category represents a product category
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ParentID    string    `json:"parent_id,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Node is a category with its subcategories, as served by the tree listing.
type Node struct {
	*Category
	Children []*Node `json:"children"`
}

// Repository persists categories. Slugs are unique.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Category, error)
}

// generateSlug creates a URL-friendly slug from a name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugHyphenRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
