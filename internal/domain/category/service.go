package category

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Input carries the writable fields of a category. An empty slug is derived
// from the name.
type Input struct {
	Name        string
	Slug        string
	Description string
	ParentID    string
	SortOrder   int
	IsActive    *bool
}

// Service handles category domain operations
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new category service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("category"), now: time.Now}
}

// Create creates a new category
func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	name, slug, err := normalize(in)
	if err != nil {
		return nil, err
	}
	if in.ParentID != "" {
		if _, err := s.lookupParent(ctx, in.ParentID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	c := &Category{
		ID:          uuid.New().String(),
		Name:        name,
		Slug:        slug,
		Description: in.Description,
		ParentID:    in.ParentID,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("category created", zap.String("category_id", c.ID), zap.String("slug", c.Slug))
	return c, nil
}

// Update replaces the writable fields of an existing category
func (s *Service) Update(ctx context.Context, id string, in Input) (*Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, slug, err := normalize(in)
	if err != nil {
		return nil, err
	}
	if in.ParentID != "" {
		if err := s.checkNoCycle(ctx, id, in.ParentID); err != nil {
			return nil, err
		}
	}

	c.Name = name
	c.Slug = slug
	c.Description = in.Description
	c.ParentID = in.ParentID
	c.SortOrder = in.SortOrder
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete deletes a category that has no subcategories
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.ParentID == id {
			return ErrHasChildren
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.String("category_id", id))
	return nil
}

// GetBySlug returns a category by its slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Tree returns the categories as a forest ordered by sort order then name.
// Inactive categories, and everything below them, are left out unless
// includeInactive is set.
func (s *Service) Tree(ctx context.Context, includeInactive bool) ([]*Node, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(all, includeInactive), nil
}

func buildTree(all []*Category, includeInactive bool) []*Node {
	nodes := make(map[string]*Node, len(all))
	for _, c := range all {
		if !includeInactive && !c.IsActive {
			continue
		}
		nodes[c.ID] = &Node{Category: c, Children: []*Node{}}
	}

	roots := []*Node{}
	for _, c := range all {
		n, ok := nodes[c.ID]
		if !ok {
			continue
		}
		if c.ParentID == "" {
			roots = append(roots, n)
			continue
		}
		if parent, ok := nodes[c.ParentID]; ok {
			parent.Children = append(parent.Children, n)
		} else if _, exists := findByID(all, c.ParentID); !exists {
			// orphaned by a deleted parent
			roots = append(roots, n)
		}
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return strings.Compare(a.Name, b.Name)
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

func findByID(all []*Category, id string) (*Category, bool) {
	for _, c := range all {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (s *Service) lookupParent(ctx context.Context, parentID string) (*Category, error) {
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	return parent, nil
}

// checkNoCycle walks up from parentID and fails if it reaches id.
func (s *Service) checkNoCycle(ctx context.Context, id, parentID string) error {
	seen := map[string]bool{}
	for current := parentID; current != ""; {
		if current == id {
			return ErrInvalidParent
		}
		if seen[current] {
			break
		}
		seen[current] = true

		parent, err := s.lookupParent(ctx, current)
		if err != nil {
			return err
		}
		current = parent.ParentID
	}
	return nil
}

func normalize(in Input) (name, slug string, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", ErrInvalidName
	}

	// Generate slug from name if not provided
	slug = strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = generateSlug(name)
	}
	if !slugRegex.MatchString(slug) {
		return "", "", ErrInvalidSlug
	}
	return name, slug, nil
}
