// Package services holds the bookkeeping logic that sits between the stores
// and the presenter: category tree navigation, budget windows and the
// reconciliation of expenses against budgets.
package services

import (
	"context"
	"fmt"
	"iter"

	"bookkeeper/internal/core"
	"bookkeeper/internal/repository"
)

// CategoryTree navigates the category forest. It keeps no state between
// calls: every operation rebuilds what it needs from the store.
type CategoryTree struct {
	categories repository.Repository[core.Category]
}

func NewCategoryTree(categories repository.Repository[core.Category]) *CategoryTree {
	return &CategoryTree{categories: categories}
}

// ParentOf returns the direct parent of c, or false for a top-level
// category or a parent that no longer exists.
func (t *CategoryTree) ParentOf(ctx context.Context, c core.Category) (core.Category, bool, error) {
	if c.IsTopLevel() {
		return core.Category{}, false, nil
	}
	return t.categories.Get(ctx, c.Parent)
}

// Ancestors yields the parent of c, then its parent, up to and including
// the top-level category. A store error is yielded once and ends the walk.
func (t *CategoryTree) Ancestors(ctx context.Context, c core.Category) iter.Seq2[core.Category, error] {
	return func(yield func(core.Category, error) bool) {
		cur := c
		for {
			parent, ok, err := t.ParentOf(ctx, cur)
			if err != nil {
				yield(core.Category{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(parent, nil) {
				return
			}
			cur = parent
		}
	}
}

// Descendants returns every category below c in depth-first pre-order:
// each child is followed by its own subtree before the next sibling.
func (t *CategoryTree) Descendants(ctx context.Context, c core.Category) (iter.Seq[core.Category], error) {
	adj, err := t.adjacency(ctx)
	if err != nil {
		return nil, err
	}
	return func(yield func(core.Category) bool) {
		walk(adj, c.PK, yield)
	}, nil
}

// AllSorted returns every category exactly once, each one after its parent.
func (t *CategoryTree) AllSorted(ctx context.Context) (iter.Seq[core.Category], error) {
	adj, err := t.adjacency(ctx)
	if err != nil {
		return nil, err
	}
	return func(yield func(core.Category) bool) {
		walk(adj, 0, yield)
	}, nil
}

// BuildFromIndentedList creates the categories named in pairs, which must
// list every parent before its children. Parent names are resolved against
// the categories created by this call.
func (t *CategoryTree) BuildFromIndentedList(ctx context.Context, pairs []core.TreePair) ([]core.Category, error) {
	created := make([]core.Category, 0, len(pairs))
	byName := make(map[string]core.Category, len(pairs))
	for _, p := range pairs {
		c := core.Category{Name: p.Name}
		if p.Parent != "" {
			parent, ok := byName[p.Parent]
			if !ok {
				return created, &core.ValidationError{
					Field: "parent",
					Err:   fmt.Errorf("%w: %q listed before its parent %q", core.ErrUnknownCategory, p.Name, p.Parent),
				}
			}
			c.Parent = parent.PK
		}
		if _, err := t.categories.Add(ctx, &c); err != nil {
			return created, fmt.Errorf("add category %q: %w", p.Name, err)
		}
		byName[c.Name] = c
		created = append(created, c)
	}
	return created, nil
}

// IsAncestor reports whether candidate is c itself or one of its ancestors.
func (t *CategoryTree) IsAncestor(ctx context.Context, candidate int64, c core.Category) (bool, error) {
	if candidate == c.PK {
		return true, nil
	}
	for a, err := range t.Ancestors(ctx, c) {
		if err != nil {
			return false, err
		}
		if a.PK == candidate {
			return true, nil
		}
	}
	return false, nil
}

func (t *CategoryTree) adjacency(ctx context.Context) (map[int64][]core.Category, error) {
	all, err := t.categories.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return buildAdjacency(all), nil
}

// buildAdjacency groups categories by parent key; top-level ones sit under 0.
// Children keep the store order.
func buildAdjacency(all []core.Category) map[int64][]core.Category {
	adj := make(map[int64][]core.Category)
	for _, c := range all {
		adj[c.Parent] = append(adj[c.Parent], c)
	}
	return adj
}

func walk(adj map[int64][]core.Category, root int64, yield func(core.Category) bool) bool {
	for _, child := range adj[root] {
		if !yield(child) {
			return false
		}
		if !walk(adj, child.PK, yield) {
			return false
		}
	}
	return true
}
