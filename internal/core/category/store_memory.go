// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/folio/internal/platform/apperr"
)

// MemoryRepository is an in-process [Repository] used by tests and fixtures.
type MemoryRepository struct {
	mu         sync.RWMutex
	categories map[string]*Category
	now        func() time.Time
}

// NewMemoryRepository returns a repository seeded with categories.
func NewMemoryRepository(seed ...*Category) *MemoryRepository {
	repository := &MemoryRepository{categories: make(map[string]*Category), now: time.Now}
	for _, category := range seed {
		repository.categories[category.ID] = category.Clone()
	}
	return repository
}

func (repository *MemoryRepository) List(_ context.Context, limit, offset int) ([]*Category, int, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	all := make([]*Category, 0, len(repository.categories))
	for _, category := range repository.categories {
		all = append(all, category.Clone())
	}
	slices.SortFunc(all, func(a, b *Category) int {
		return strings.Compare(a.Name, b.Name)
	})

	total := len(all)
	if offset >= total {
		return []*Category{}, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func (repository *MemoryRepository) ListIDs(_ context.Context) ([]string, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	ids := make([]string, 0, len(repository.categories))
	for id := range repository.categories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*Category, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	category, ok := repository.categories[id]
	if !ok {
		return nil, apperr.NotFound("Category")
	}
	return category.Clone(), nil
}

// Exists reports whether a category with id is stored.
func (repository *MemoryRepository) Exists(_ context.Context, id string) (bool, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	_, ok := repository.categories[id]
	return ok, nil
}

func (repository *MemoryRepository) FindBySlug(_ context.Context, slug string) (*Category, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	for _, category := range repository.categories {
		if category.Slug == slug {
			return category.Clone(), nil
		}
	}
	return nil, apperr.NotFound("Category")
}

func (repository *MemoryRepository) taken(category *Category) bool {
	for id, existing := range repository.categories {
		if id == category.ID {
			continue
		}
		if existing.Slug == category.Slug || existing.Name == category.Name {
			return true
		}
	}
	return false
}

func (repository *MemoryRepository) Create(_ context.Context, category *Category) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.categories[category.ID]; exists || repository.taken(category) {
		return apperr.Conflict("Category with the same name or slug already exists")
	}

	category.CreatedAt = repository.now()
	category.UpdatedAt = category.CreatedAt
	repository.categories[category.ID] = category.Clone()
	return nil
}

func (repository *MemoryRepository) Update(_ context.Context, category *Category) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.categories[category.ID]
	if !ok {
		return apperr.NotFound("Category")
	}
	if repository.taken(category) {
		return apperr.Conflict("Category with the same name or slug already exists")
	}

	stored.Name = category.Name
	stored.Slug = category.Slug
	stored.Description = category.Clone().Description
	stored.UpdatedAt = repository.now()

	category.UpdatedAt = stored.UpdatedAt
	category.ImageCount = stored.ImageCount
	return nil
}

func (repository *MemoryRepository) SetImageCount(_ context.Context, id string, count int) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.categories[id]
	if !ok {
		return apperr.NotFound("Category")
	}
	stored.ImageCount = count
	stored.UpdatedAt = repository.now()
	return nil
}

func (repository *MemoryRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.categories[id]; !ok {
		return apperr.NotFound("Category")
	}
	delete(repository.categories, id)
	return nil
}
