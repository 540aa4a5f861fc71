// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/taibuivan/folio/internal/platform/apperr"
)

// MemoryRepository is an in-process [Repository].
//
// It backs the service and engine tests and local fixtures. Every read and
// write copies the image so callers never alias stored state.
type MemoryRepository struct {
	mu         sync.RWMutex
	images     map[string]*Image
	categories CategoryChecker
	now        func() time.Time
}

// CategoryChecker reports whether a category exists.
type CategoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// NewMemoryRepository returns a repository seeded with images.
func NewMemoryRepository(images ...*Image) *MemoryRepository {
	repository := &MemoryRepository{images: make(map[string]*Image), now: time.Now}
	for _, image := range images {
		repository.images[image.ID] = image.Clone()
	}
	return repository
}

// CheckCategories makes Create and Update reject an unknown category with
// INVALID_REFERENCE, as the foreign key does in postgres. Seeded images are not
// checked.
func (repository *MemoryRepository) CheckCategories(categories CategoryChecker) *MemoryRepository {
	repository.categories = categories
	return repository
}

func (repository *MemoryRepository) checkCategory(ctx context.Context, categoryID *string) error {
	if repository.categories == nil || categoryID == nil {
		return nil
	}

	exists, err := repository.categories.Exists(ctx, *categoryID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.InvalidReference("Category does not exist")
	}
	return nil
}

func (repository *MemoryRepository) List(_ context.Context, filter Filter, limit, offset int) ([]*Image, int, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	matched := make([]*Image, 0, len(repository.images))
	for _, image := range repository.images {
		if matches(image, filter) {
			matched = append(matched, image.Clone())
		}
	}

	// Same ordering as the postgres listing: manual order, then newest first.
	slices.SortFunc(matched, func(a, b *Image) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []*Image{}, total, nil
	}
	end := min(offset+limit, total)

	return matched[offset:end], total, nil
}

func matches(image *Image, filter Filter) bool {
	if filter.Status != nil && image.Status != *filter.Status {
		return false
	}
	if filter.Featured != nil && image.Featured != *filter.Featured {
		return false
	}
	if filter.CategoryID != nil && (image.CategoryID == nil || *image.CategoryID != *filter.CategoryID) {
		return false
	}
	if filter.SeriesID != nil && !image.InSeries(*filter.SeriesID) {
		return false
	}
	return true
}

func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*Image, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	image, ok := repository.images[id]
	if !ok {
		return nil, apperr.NotFound("Image")
	}
	return image.Clone(), nil
}

func (repository *MemoryRepository) FindByIDs(_ context.Context, ids []string) ([]*Image, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	found := make([]*Image, 0, len(ids))
	for _, id := range ids {
		if image, ok := repository.images[id]; ok {
			found = append(found, image.Clone())
		}
	}
	return found, nil
}

func (repository *MemoryRepository) FindBySeries(_ context.Context, seriesID string) ([]*Image, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	found := make([]*Image, 0)
	for _, image := range repository.images {
		if image.InSeries(seriesID) {
			found = append(found, image.Clone())
		}
	}
	return found, nil
}

func (repository *MemoryRepository) Create(ctx context.Context, image *Image) error {
	if err := repository.checkCategory(ctx, image.CategoryID); err != nil {
		return err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.images[image.ID]; exists {
		return apperr.Conflict("Image already exists")
	}

	image.CreatedAt = repository.now()
	image.UpdatedAt = image.CreatedAt
	repository.images[image.ID] = image.Clone()
	return nil
}

func (repository *MemoryRepository) Update(ctx context.Context, image *Image) error {
	if err := repository.checkCategory(ctx, image.CategoryID); err != nil {
		return err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.images[image.ID]
	if !ok {
		return apperr.NotFound("Image")
	}

	updated := image.Clone()
	updated.SeriesID = stored.SeriesID
	updated.Views = stored.Views
	updated.Likes = stored.Likes
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = repository.now()
	repository.images[image.ID] = updated

	image.UpdatedAt = updated.UpdatedAt
	return nil
}

func (repository *MemoryRepository) SetSeries(_ context.Context, id string, seriesID *string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	image, ok := repository.images[id]
	if !ok {
		return apperr.NotFound("Image")
	}
	image.SeriesID = cloneString(seriesID)
	image.UpdatedAt = repository.now()
	return nil
}

func (repository *MemoryRepository) DetachSeries(_ context.Context, seriesID string) ([]string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	detached := make([]string, 0)
	for id, image := range repository.images {
		if image.InSeries(seriesID) {
			image.SeriesID = nil
			image.UpdatedAt = repository.now()
			detached = append(detached, id)
		}
	}
	slices.Sort(detached)
	return detached, nil
}

func (repository *MemoryRepository) DetachCategory(_ context.Context, categoryID string) ([]string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	detached := make([]string, 0)
	for id, image := range repository.images {
		if image.CategoryID != nil && *image.CategoryID == categoryID {
			image.CategoryID = nil
			image.UpdatedAt = repository.now()
			detached = append(detached, id)
		}
	}
	slices.Sort(detached)
	return detached, nil
}

func (repository *MemoryRepository) CountPublished(_ context.Context, categoryID, excludeID string) (int, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	count := 0
	for id, image := range repository.images {
		if id == excludeID || !image.Published() {
			continue
		}
		if image.CategoryID != nil && *image.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (repository *MemoryRepository) Increment(_ context.Context, id string, counter Counter) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	image, ok := repository.images[id]
	if !ok {
		return 0, apperr.NotFound("Image")
	}

	switch counter {
	case CounterLikes:
		image.Likes++
		return image.Likes, nil
	default:
		image.Views++
		return image.Views, nil
	}
}

func (repository *MemoryRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.images[id]; !ok {
		return apperr.NotFound("Image")
	}
	delete(repository.images, id)
	return nil
}
