// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/taibuivan/folio/internal/platform/apperr"
)

// MemoryRepository is an in-process [Repository] used by tests and fixtures.
type MemoryRepository struct {
	mu     sync.RWMutex
	series map[string]*Series
	now    func() time.Time
}

// NewMemoryRepository returns a repository seeded with series.
func NewMemoryRepository(seed ...*Series) *MemoryRepository {
	repository := &MemoryRepository{series: make(map[string]*Series), now: time.Now}
	for _, series := range seed {
		repository.series[series.ID] = series.Clone()
	}
	return repository
}

func (repository *MemoryRepository) List(_ context.Context, filter Filter, limit, offset int) ([]*Series, int, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	matched := make([]*Series, 0, len(repository.series))
	for _, series := range repository.series {
		if filter.Status != nil && series.Status != *filter.Status {
			continue
		}
		if filter.Featured != nil && series.Featured != *filter.Featured {
			continue
		}
		if filter.CategoryID != nil && (series.CategoryID == nil || *series.CategoryID != *filter.CategoryID) {
			continue
		}
		matched = append(matched, series.Clone())
	}

	slices.SortFunc(matched, func(a, b *Series) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []*Series{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (repository *MemoryRepository) ListIDs(_ context.Context) ([]string, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	ids := make([]string, 0, len(repository.series))
	for id := range repository.series {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*Series, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	series, ok := repository.series[id]
	if !ok {
		return nil, apperr.NotFound("Series")
	}
	return series.Clone(), nil
}

func (repository *MemoryRepository) FindBySlug(_ context.Context, slug string) (*Series, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	for _, series := range repository.series {
		if series.Slug == slug {
			return series.Clone(), nil
		}
	}
	return nil, apperr.NotFound("Series")
}

func (repository *MemoryRepository) slugTaken(slug, exceptID string) bool {
	for id, series := range repository.series {
		if id != exceptID && series.Slug == slug {
			return true
		}
	}
	return false
}

func (repository *MemoryRepository) Create(_ context.Context, series *Series) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.series[series.ID]; exists || repository.slugTaken(series.Slug, "") {
		return apperr.Conflict("Series with the same name or slug already exists")
	}

	series.CreatedAt = repository.now()
	series.UpdatedAt = series.CreatedAt
	repository.series[series.ID] = series.Clone()
	return nil
}

func (repository *MemoryRepository) Update(_ context.Context, series *Series) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.series[series.ID]
	if !ok {
		return apperr.NotFound("Series")
	}
	if repository.slugTaken(series.Slug, series.ID) {
		return apperr.Conflict("Series with the same name or slug already exists")
	}

	stored.Title = series.Title
	stored.Slug = series.Slug
	stored.Description = cloneString(series.Description)
	stored.CategoryID = cloneString(series.CategoryID)
	stored.Featured = series.Featured
	stored.Status = series.Status
	stored.UpdatedAt = repository.now()

	series.UpdatedAt = stored.UpdatedAt
	return nil
}

func (repository *MemoryRepository) SetImages(_ context.Context, id string, images []string, coverImageID *string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.series[id]
	if !ok {
		return apperr.NotFound("Series")
	}

	stored.Images = slices.Clone(images)
	if stored.Images == nil {
		stored.Images = []string{}
	}
	stored.CoverImageID = cloneString(coverImageID)
	stored.UpdatedAt = repository.now()
	return nil
}

func (repository *MemoryRepository) DetachCategory(_ context.Context, categoryID string) ([]string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	detached := make([]string, 0)
	for id, series := range repository.series {
		if series.CategoryID != nil && *series.CategoryID == categoryID {
			series.CategoryID = nil
			series.UpdatedAt = repository.now()
			detached = append(detached, id)
		}
	}
	slices.Sort(detached)
	return detached, nil
}

func (repository *MemoryRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.series[id]; !ok {
		return apperr.NotFound("Series")
	}
	delete(repository.series, id)
	return nil
}
