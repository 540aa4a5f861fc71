// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package relation_test

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/core/category"
	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/core/relation"
	"github.com/taibuivan/folio/internal/core/series"
	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/pkg/pointer"
)

const (
	seriesOne   = "s1"
	seriesTwo   = "s2"
	categoryOne = "c1"
)

// # Fixtures

type world struct {
	images     *image.MemoryRepository
	series     *series.MemoryRepository
	categories *category.MemoryRepository
	cache      *cache.Memory
	engine     *relation.Engine
}

type stores struct {
	images     relation.ImageStore
	series     relation.SeriesStore
	categories relation.CategoryStore
}

func newWorld(t *testing.T, images []*image.Image, list []*series.Series, categories []*category.Category) *world {
	t.Helper()

	w := &world{
		images:     image.NewMemoryRepository(images...),
		series:     series.NewMemoryRepository(list...),
		categories: category.NewMemoryRepository(categories...),
	}
	return w.build(t, stores{w.images, w.series, w.categories})
}

// build wires the engine over s, which may wrap the world's repositories.
func (w *world) build(t *testing.T, s stores) *world {
	t.Helper()

	memory, err := cache.NewMemory(context.Background(), cache.MemoryOptions{DefaultTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = memory.Close() })

	w.cache = memory
	w.engine = relation.NewEngine(relation.Options{
		Images:     s.images,
		Series:     s.series,
		Categories: s.categories,
		Cache:      memory,
	})
	return w
}

func published(id string, categoryID, seriesID *string) *image.Image {
	return &image.Image{
		ID:         id,
		Title:      "Image " + id,
		URL:        "/uploads/" + id + ".jpg",
		CategoryID: categoryID,
		SeriesID:   seriesID,
		Status:     image.StatusPublished,
	}
}

func collection(id string, cover *string, members ...string) *series.Series {
	if members == nil {
		members = []string{}
	}
	return &series.Series{
		ID:           id,
		Title:        "Series " + id,
		Slug:         "series-" + id,
		Images:       members,
		CoverImageID: cover,
		Status:       series.StatusPublished,
	}
}

func (w *world) image(t *testing.T, id string) *image.Image {
	t.Helper()
	found, err := w.images.FindByID(context.Background(), id)
	require.NoError(t, err)
	return found
}

func (w *world) seriesByID(t *testing.T, id string) *series.Series {
	t.Helper()
	found, err := w.series.FindByID(context.Background(), id)
	require.NoError(t, err)
	return found
}

// seedCache stores one entry per namespace.
func (w *world) seedCache() {
	ctx := context.Background()
	for _, key := range []string{"images:id:i1", "series:id:s1", "categories:id:c1"} {
		w.cache.Set(ctx, key, []byte("{}"), cache.DefaultTTL)
	}
}

func (w *world) cached(key string) bool {
	_, ok := w.cache.Get(context.Background(), key)
	return ok
}

// # Add

/*
TestAddImageToSeries_SetsBothSides appends the image once and points it back.
*/
func TestAddImageToSeries_SetsBothSides(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{published("i1", nil, nil), published("i2", nil, nil)},
		[]*series.Series{collection(seriesOne, nil)},
		nil,
	)

	for range 2 {
		result, err := w.engine.AddImageToSeries(ctx, seriesOne, "i1")
		require.NoError(t, err)
		assert.Equal(t, []string{"i1"}, result.Images)
	}

	_, err := w.engine.AddImageToSeries(ctx, seriesOne, "i2")
	require.NoError(t, err)

	assert.Equal(t, []string{"i1", "i2"}, w.seriesByID(t, seriesOne).Images)
	assert.True(t, w.image(t, "i1").InSeries(seriesOne))
	assert.True(t, w.image(t, "i2").InSeries(seriesOne))
}

/*
TestAddImageToSeries_NotFound rejects identifiers that do not resolve.
*/
func TestAddImageToSeries_NotFound(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{published("i1", nil, nil)},
		[]*series.Series{collection(seriesOne, nil)},
		nil,
	)

	tests := []struct {
		name     string
		seriesID string
		imageID  string
		message  string
	}{
		{"missing_series", "ghost", "i1", "Series not found"},
		{"missing_image", seriesOne, "ghost", "Image not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.engine.AddImageToSeries(ctx, tt.seriesID, tt.imageID)
			require.Error(t, err)
			assert.True(t, apperr.IsNotFound(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}

	assert.Empty(t, w.seriesByID(t, seriesOne).Images)
	assert.Nil(t, w.image(t, "i1").SeriesID)
}

/*
TestAddImageToSeries_HealsBackReference restores the link of a member whose
back-reference diverged.
*/
func TestAddImageToSeries_HealsBackReference(t *testing.T) {
	w := newWorld(t,
		[]*image.Image{published("i1", nil, nil)},
		[]*series.Series{collection(seriesOne, nil, "i1")},
		nil,
	)

	result, err := w.engine.AddImageToSeries(context.Background(), seriesOne, "i1")
	require.NoError(t, err)

	assert.Equal(t, []string{"i1"}, result.Images)
	assert.True(t, w.image(t, "i1").InSeries(seriesOne))
}

/*
TestAddImageToSeries_MoveLeavesPreviousSeries documents that the previous
series keeps a stale entry until it is repaired.
*/
func TestAddImageToSeries_MoveLeavesPreviousSeries(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{published("i1", nil, pointer.To(seriesOne))},
		[]*series.Series{collection(seriesOne, pointer.To("i1"), "i1"), collection(seriesTwo, nil)},
		nil,
	)

	_, err := w.engine.AddImageToSeries(ctx, seriesTwo, "i1")
	require.NoError(t, err)

	assert.True(t, w.image(t, "i1").InSeries(seriesTwo))
	assert.Equal(t, []string{"i1"}, w.seriesByID(t, seriesTwo).Images)
	assert.Equal(t, []string{"i1"}, w.seriesByID(t, seriesOne).Images)

	// 1. Repair drops the stale entry and the cover with it
	report, err := w.engine.RepairSeries(ctx, seriesOne)
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, report.Dropped)
	assert.True(t, report.CoverReset)
	assert.Empty(t, report.Series.Images)
	assert.Nil(t, report.Series.CoverImageID)
}

// # Remove

/*
TestRemoveImageFromSeries_CoverReassignment moves the cover to the new first
member, or unsets it when the series empties.
*/
func TestRemoveImageFromSeries_CoverReassignment(t *testing.T) {
	tests := []struct {
		name      string
		members   []string
		cover     *string
		remove    string
		wantOrder []string
		wantCover *string
	}{
		{"cover_removed", []string{"i1", "i2", "i3"}, pointer.To("i1"), "i1", []string{"i2", "i3"}, pointer.To("i2")},
		{"other_removed", []string{"i1", "i2", "i3"}, pointer.To("i1"), "i3", []string{"i1", "i2"}, pointer.To("i1")},
		{"last_removed", []string{"i1"}, pointer.To("i1"), "i1", []string{}, nil},
		{"no_cover", []string{"i1", "i2"}, nil, "i1", []string{"i2"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := make([]*image.Image, 0, len(tt.members))
			for _, id := range tt.members {
				images = append(images, published(id, nil, pointer.To(seriesOne)))
			}
			w := newWorld(t, images, []*series.Series{collection(seriesOne, tt.cover, tt.members...)}, nil)

			result, err := w.engine.RemoveImageFromSeries(context.Background(), seriesOne, tt.remove)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOrder, result.Images)
			assert.Equal(t, tt.wantCover, result.CoverImageID)
			assert.Nil(t, w.image(t, tt.remove).SeriesID)
		})
	}
}

/*
TestRemoveImageFromSeries_NonMember is a no-op that still clears a stale
back-reference pointing at the series.
*/
func TestRemoveImageFromSeries_NonMember(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{
			published("i1", nil, pointer.To(seriesOne)),
			published("i2", nil, pointer.To(seriesOne)),
			published("i3", nil, pointer.To(seriesTwo)),
		},
		[]*series.Series{collection(seriesOne, nil, "i1"), collection(seriesTwo, nil, "i3")},
		nil,
	)

	// 1. Stale back-reference
	result, err := w.engine.RemoveImageFromSeries(ctx, seriesOne, "i2")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, result.Images)
	assert.Nil(t, w.image(t, "i2").SeriesID)

	// 2. Member of another series is left alone
	_, err = w.engine.RemoveImageFromSeries(ctx, seriesOne, "i3")
	require.NoError(t, err)
	assert.True(t, w.image(t, "i3").InSeries(seriesTwo))

	// 3. Unknown image
	_, err = w.engine.RemoveImageFromSeries(ctx, seriesOne, "ghost")
	require.NoError(t, err)

	// 4. Unknown series
	_, err = w.engine.RemoveImageFromSeries(ctx, "ghost", "i1")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestRemoveImageFromSeries_MissingImage removes a dangling entry from the sequence.
*/
func TestRemoveImageFromSeries_MissingImage(t *testing.T) {
	w := newWorld(t,
		[]*image.Image{published("i2", nil, pointer.To(seriesOne))},
		[]*series.Series{collection(seriesOne, pointer.To("i1"), "i1", "i2")},
		nil,
	)

	result, err := w.engine.RemoveImageFromSeries(context.Background(), seriesOne, "i1")
	require.NoError(t, err)

	assert.Equal(t, []string{"i2"}, result.Images)
	assert.Equal(t, pointer.To("i2"), result.CoverImageID)
}

// # Reorder

/*
TestReorderSeriesImages filters the requested order down to current members.
*/
func TestReorderSeriesImages(t *testing.T) {
	tests := []struct {
		name         string
		members      []string
		cover        *string
		order        []string
		wantOrder    []string
		wantCover    *string
		wantDetached []string
	}{
		{
			name:      "ghost_ignored",
			members:   []string{"i1", "i3"},
			order:     []string{"i3", "i1", "I_GHOST"},
			wantOrder: []string{"i3", "i1"},
		},
		{
			name:      "duplicates_collapsed",
			members:   []string{"i1", "i2"},
			order:     []string{"i2", "i2", "i1"},
			wantOrder: []string{"i2", "i1"},
		},
		{
			name:         "unmentioned_dropped",
			members:      []string{"i1", "i2", "i3"},
			cover:        pointer.To("i1"),
			order:        []string{"i3", "i2"},
			wantOrder:    []string{"i3", "i2"},
			wantCover:    pointer.To("i3"),
			wantDetached: []string{"i1"},
		},
		{
			name:         "empty_order",
			members:      []string{"i1"},
			cover:        pointer.To("i1"),
			order:        []string{},
			wantOrder:    []string{},
			wantDetached: []string{"i1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := make([]*image.Image, 0, len(tt.members))
			for _, id := range tt.members {
				images = append(images, published(id, nil, pointer.To(seriesOne)))
			}
			w := newWorld(t, images, []*series.Series{collection(seriesOne, tt.cover, tt.members...)}, nil)

			result, err := w.engine.ReorderSeriesImages(context.Background(), seriesOne, tt.order)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOrder, result.Images)
			assert.Equal(t, tt.wantCover, result.CoverImageID)
			assert.NotContains(t, result.Images, "I_GHOST")

			for _, id := range tt.members {
				if slices.Contains(tt.wantDetached, id) {
					assert.Nil(t, w.image(t, id).SeriesID, id)
				} else {
					assert.True(t, w.image(t, id).InSeries(seriesOne), id)
				}
			}
		})
	}
}

// # Cover

/*
TestSetCoverImage accepts members only.
*/
func TestSetCoverImage(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{published("i1", nil, pointer.To(seriesOne)), published("i2", nil, nil)},
		[]*series.Series{collection(seriesOne, nil, "i1")},
		nil,
	)

	result, err := w.engine.SetCoverImage(ctx, seriesOne, "i1")
	require.NoError(t, err)
	assert.Equal(t, pointer.To("i1"), result.CoverImageID)

	_, err = w.engine.SetCoverImage(ctx, seriesOne, "i2")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidReference))
	assert.Equal(t, pointer.To("i1"), w.seriesByID(t, seriesOne).CoverImageID)

	result, err = w.engine.SetCoverImage(ctx, seriesOne, "")
	require.NoError(t, err)
	assert.Nil(t, result.CoverImageID)
}

// # Delete image

func fiveInCategory(seriesID *string) []*image.Image {
	images := make([]*image.Image, 0, 5)
	for _, id := range []string{"i1", "i2", "i3", "i4", "i5"} {
		images = append(images, published(id, pointer.To(categoryOne), seriesID))
	}
	return images
}

/*
TestDeleteImage_Cascades removes the image from its series and recounts its
category before deleting it.
*/
func TestDeleteImage_Cascades(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		fiveInCategory(pointer.To(seriesOne)),
		[]*series.Series{collection(seriesOne, pointer.To("i1"), "i1", "i2", "i3", "i4", "i5")},
		[]*category.Category{{ID: categoryOne, Name: "Street", Slug: "street", ImageCount: 5}},
	)
	w.seedCache()

	require.NoError(t, w.engine.DeleteImage(ctx, "i1"))

	_, err := w.images.FindByID(ctx, "i1")
	assert.True(t, apperr.IsNotFound(err))

	remaining := w.seriesByID(t, seriesOne)
	assert.Equal(t, []string{"i2", "i3", "i4", "i5"}, remaining.Images)
	assert.Equal(t, pointer.To("i2"), remaining.CoverImageID)

	stored, err := w.categories.FindByID(ctx, categoryOne)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.ImageCount)

	assert.False(t, w.cached("images:id:i1"))
	assert.False(t, w.cached("series:id:s1"))
	assert.False(t, w.cached("categories:id:c1"))

	// 1. Deleting again reports the missing image
	assert.True(t, apperr.IsNotFound(w.engine.DeleteImage(ctx, "i1")))
}

/*
TestDeleteImage_MissingRelations skips a category or series that no longer exists.
*/
func TestDeleteImage_MissingRelations(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, []*image.Image{published("i1", pointer.To("gone"), pointer.To("gone"))}, nil, nil)

	require.NoError(t, w.engine.DeleteImage(ctx, "i1"))

	_, err := w.images.FindByID(ctx, "i1")
	assert.True(t, apperr.IsNotFound(err))
}

var errStore = errors.New("store unavailable")

type failingImages struct {
	*image.MemoryRepository
	failDelete bool
}

func (store *failingImages) Delete(ctx context.Context, id string) error {
	if store.failDelete {
		return errStore
	}
	return store.MemoryRepository.Delete(ctx, id)
}

type failingCategories struct {
	*category.MemoryRepository
	failSetCount bool
	failDelete   bool
}

func (store *failingCategories) SetImageCount(ctx context.Context, id string, count int) error {
	if store.failSetCount {
		return errStore
	}
	return store.MemoryRepository.SetImageCount(ctx, id, count)
}

func (store *failingCategories) Delete(ctx context.Context, id string) error {
	if store.failDelete {
		return errStore
	}
	return store.MemoryRepository.Delete(ctx, id)
}

type failingSeries struct {
	*series.MemoryRepository
	failDetach bool
	failDelete bool
}

func (store *failingSeries) DetachCategory(ctx context.Context, categoryID string) ([]string, error) {
	if store.failDetach {
		return nil, errStore
	}
	return store.MemoryRepository.DetachCategory(ctx, categoryID)
}

func (store *failingSeries) Delete(ctx context.Context, id string) error {
	if store.failDelete {
		return errStore
	}
	return store.MemoryRepository.Delete(ctx, id)
}

/*
TestDeleteImage_PartialCascade reports a failure after an applied step as a
partial cascade, and a failure of the first step unchanged.
*/
func TestDeleteImage_PartialCascade(t *testing.T) {
	ctx := context.Background()

	t.Run("delete_after_recount", func(t *testing.T) {
		w := newWorld(t,
			fiveInCategory(nil),
			nil,
			[]*category.Category{{ID: categoryOne, Name: "Street", Slug: "street", ImageCount: 5}},
		)
		w.build(t, stores{&failingImages{MemoryRepository: w.images, failDelete: true}, w.series, w.categories})
		w.seedCache()

		err := w.engine.DeleteImage(ctx, "i1")
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodePartialCascade))
		assert.Contains(t, err.Error(), "delete_image")
		assert.ErrorIs(t, err, errStore)

		// 1. The applied step is kept and the cache is still invalidated
		stored, findErr := w.categories.FindByID(ctx, categoryOne)
		require.NoError(t, findErr)
		assert.Equal(t, 4, stored.ImageCount)
		assert.False(t, w.cached("categories:id:c1"))

		// 2. A retry completes the operation
		w.build(t, stores{w.images, w.series, w.categories})
		require.NoError(t, w.engine.DeleteImage(ctx, "i1"))
	})

	t.Run("first_step", func(t *testing.T) {
		w := newWorld(t,
			fiveInCategory(nil),
			nil,
			[]*category.Category{{ID: categoryOne, Name: "Street", Slug: "street", ImageCount: 5}},
		)
		w.build(t, stores{w.images, w.series, &failingCategories{MemoryRepository: w.categories, failSetCount: true}})

		err := w.engine.DeleteImage(ctx, "i1")
		require.ErrorIs(t, err, errStore)
		assert.False(t, apperr.HasCode(err, apperr.CodePartialCascade))
		assert.NotNil(t, w.image(t, "i1"))
	})
}

// # Delete series

/*
TestDeleteSeries_KeepsImages clears every member's back-reference.
*/
func TestDeleteSeries_KeepsImages(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{
			published("i1", nil, pointer.To(seriesOne)),
			published("i2", nil, pointer.To(seriesOne)),
			published("i3", nil, pointer.To(seriesTwo)),
		},
		[]*series.Series{collection(seriesOne, pointer.To("i1"), "i1", "i2"), collection(seriesTwo, nil, "i3")},
		nil,
	)
	w.seedCache()

	require.NoError(t, w.engine.DeleteSeries(ctx, seriesOne))

	_, err := w.series.FindByID(ctx, seriesOne)
	assert.True(t, apperr.IsNotFound(err))

	assert.Nil(t, w.image(t, "i1").SeriesID)
	assert.Nil(t, w.image(t, "i2").SeriesID)
	assert.True(t, w.image(t, "i3").InSeries(seriesTwo))

	assert.False(t, w.cached("series:id:s1"))
	assert.False(t, w.cached("images:id:i1"))
	assert.True(t, w.cached("categories:id:c1"))

	assert.True(t, apperr.IsNotFound(w.engine.DeleteSeries(ctx, seriesOne)))
}

/*
TestDeleteSeries_PartialCascade names the failing step.
*/
func TestDeleteSeries_PartialCascade(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{published("i1", nil, pointer.To(seriesOne))},
		[]*series.Series{collection(seriesOne, nil, "i1")},
		nil,
	)
	w.build(t, stores{w.images, &failingSeries{MemoryRepository: w.series, failDelete: true}, w.categories})

	err := w.engine.DeleteSeries(ctx, seriesOne)
	assert.True(t, apperr.HasCode(err, apperr.CodePartialCascade))
	assert.Contains(t, err.Error(), "delete_series")
	assert.Nil(t, w.image(t, "i1").SeriesID)
}

// # Delete category

/*
TestDeleteCategory_Uncategorizes leaves images and series without a category.
*/
func TestDeleteCategory_Uncategorizes(t *testing.T) {
	ctx := context.Background()
	withCategory := collection(seriesOne, nil)
	withCategory.CategoryID = pointer.To(categoryOne)

	w := newWorld(t,
		fiveInCategory(nil),
		[]*series.Series{withCategory},
		[]*category.Category{{ID: categoryOne, Name: "Street", Slug: "street", ImageCount: 5}},
	)
	w.seedCache()

	require.NoError(t, w.engine.DeleteCategory(ctx, categoryOne))

	_, err := w.categories.FindByID(ctx, categoryOne)
	assert.True(t, apperr.IsNotFound(err))
	assert.Nil(t, w.image(t, "i3").CategoryID)
	assert.Nil(t, w.seriesByID(t, seriesOne).CategoryID)

	assert.False(t, w.cached("categories:id:c1"))
	assert.False(t, w.cached("images:id:i1"))
	assert.False(t, w.cached("series:id:s1"))
}

/*
TestDeleteCategory_PartialCascade reports the step that failed after images
were detached.
*/
func TestDeleteCategory_PartialCascade(t *testing.T) {
	tests := []struct {
		name     string
		series   *failingSeries
		category *failingCategories
		step     string
	}{
		{"detach_series", &failingSeries{failDetach: true}, &failingCategories{}, "detach_series"},
		{"delete_category", &failingSeries{}, &failingCategories{failDelete: true}, "delete_category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t,
				fiveInCategory(nil),
				nil,
				[]*category.Category{{ID: categoryOne, Name: "Street", Slug: "street"}},
			)
			tt.series.MemoryRepository = w.series
			tt.category.MemoryRepository = w.categories
			w.build(t, stores{w.images, tt.series, tt.category})

			err := w.engine.DeleteCategory(context.Background(), categoryOne)
			assert.True(t, apperr.HasCode(err, apperr.CodePartialCascade))
			assert.Contains(t, err.Error(), tt.step)
			assert.Nil(t, w.image(t, "i1").CategoryID)
		})
	}
}

// # Counts

/*
TestRecomputeCategoryCount counts published images only.
*/
func TestRecomputeCategoryCount(t *testing.T) {
	ctx := context.Background()
	images := fiveInCategory(nil)
	images[0].Status = image.StatusDraft
	images[1].Status = image.StatusArchived

	w := newWorld(t, images, nil, []*category.Category{{ID: categoryOne, Name: "Street", Slug: "street", ImageCount: 42}})

	result, err := w.engine.RecomputeCategoryCount(ctx, categoryOne)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ImageCount)

	_, err = w.engine.RecomputeCategoryCount(ctx, "ghost")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestRecountCategories skips empty, repeated and missing identifiers.
*/
func TestRecountCategories(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, fiveInCategory(nil), nil, []*category.Category{
		{ID: categoryOne, Name: "Street", Slug: "street"},
		{ID: "c2", Name: "Portrait", Slug: "portrait", ImageCount: 9},
	})

	require.NoError(t, w.engine.RecountCategories(ctx, categoryOne, "", categoryOne, "c2", "ghost"))

	first, err := w.categories.FindByID(ctx, categoryOne)
	require.NoError(t, err)
	assert.Equal(t, 5, first.ImageCount)

	second, err := w.categories.FindByID(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 0, second.ImageCount)

	assert.NoError(t, w.engine.RecountCategories(ctx))
}

// # Repair

/*
TestRepairSeries reconciles the sequence with the back-references.
*/
func TestRepairSeries(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{
			published("kept", nil, pointer.To(seriesOne)),
			published("unlinked", nil, nil),
			published("moved", nil, pointer.To(seriesTwo)),
			published("orphan", nil, pointer.To(seriesOne)),
		},
		[]*series.Series{collection(seriesOne, pointer.To("moved"), "kept", "ghost", "unlinked", "moved", "kept")},
		nil,
	)

	report, err := w.engine.RepairSeries(ctx, seriesOne)
	require.NoError(t, err)

	assert.True(t, report.Changed())
	assert.Equal(t, []string{"ghost", "moved", "kept"}, report.Dropped)
	assert.Equal(t, []string{"unlinked"}, report.Attached)
	assert.Equal(t, []string{"orphan"}, report.Appended)
	assert.True(t, report.CoverReset)

	assert.Equal(t, []string{"kept", "unlinked", "orphan"}, report.Series.Images)
	assert.Equal(t, pointer.To("kept"), report.Series.CoverImageID)
	assert.True(t, w.image(t, "unlinked").InSeries(seriesOne))
	assert.True(t, w.image(t, "moved").InSeries(seriesTwo))

	// 1. A consistent series is left unchanged
	again, err := w.engine.RepairSeries(ctx, seriesOne)
	require.NoError(t, err)
	assert.False(t, again.Changed())
}

/*
TestAddImageToSeries_Concurrent adds many images to one series at once.

Concurrent writes to the same sequence are last-write-wins, so some appends
may be lost. Every back-reference still lands, the surviving sequence holds
no duplicates, and a repair pass restores the full membership.
*/
func TestAddImageToSeries_Concurrent(t *testing.T) {
	ctx := context.Background()

	const count = 20

	images := make([]*image.Image, 0, count)
	ids := make([]string, 0, count)
	for i := range count {
		id := "i" + strconv.Itoa(i)
		images = append(images, published(id, nil, nil))
		ids = append(ids, id)
	}
	w := newWorld(t, images, []*series.Series{collection(seriesOne, nil)}, nil)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.engine.AddImageToSeries(ctx, seriesOne, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sequence := w.seriesByID(t, seriesOne).Images
	assert.Len(t, slices.Compact(slices.Sorted(slices.Values(sequence))), len(sequence))
	for _, id := range sequence {
		assert.Contains(t, ids, id)
	}
	for _, id := range ids {
		assert.True(t, w.image(t, id).InSeries(seriesOne), id)
	}

	report, err := w.engine.RepairSeries(ctx, seriesOne)
	require.NoError(t, err)
	assert.Empty(t, report.Dropped)
	assert.ElementsMatch(t, ids, report.Series.Images)
}

/*
TestRepairAll repairs every series and recounts every category.
*/
func TestRepairAll(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t,
		[]*image.Image{published("i1", pointer.To(categoryOne), pointer.To(seriesOne))},
		[]*series.Series{collection(seriesOne, nil), collection(seriesTwo, nil)},
		[]*category.Category{{ID: categoryOne, Name: "Street", Slug: "street", ImageCount: 7}},
	)

	summary, err := w.engine.RepairAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Checked)
	require.Len(t, summary.Repaired, 1)
	assert.Equal(t, seriesOne, summary.Repaired[0].Series.ID)
	assert.Equal(t, 1, summary.Recounted)

	stored, err := w.categories.FindByID(ctx, categoryOne)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ImageCount)
}

// # Invalidation

/*
TestMembershipInvalidation evicts series and image reads but keeps categories.
*/
func TestMembershipInvalidation(t *testing.T) {
	w := newWorld(t,
		[]*image.Image{published("i1", nil, nil)},
		[]*series.Series{collection(seriesOne, nil)},
		nil,
	)
	w.seedCache()

	_, err := w.engine.AddImageToSeries(context.Background(), seriesOne, "i1")
	require.NoError(t, err)

	assert.False(t, w.cached("series:id:s1"))
	assert.False(t, w.cached("images:id:i1"))
	assert.True(t, w.cached("categories:id:c1"))
}

// # Transactions

type recordingTx struct {
	runs int
}

func (tx *recordingTx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.runs++
	return fn(ctx)
}

/*
TestEngine_UsesTransactor routes every multi-write operation through the transactor.
*/
func TestEngine_UsesTransactor(t *testing.T) {
	ctx := context.Background()
	tx := &recordingTx{}
	engine := relation.NewEngine(relation.Options{
		Images:     image.NewMemoryRepository(published("i1", nil, nil)),
		Series:     series.NewMemoryRepository(collection(seriesOne, nil)),
		Categories: category.NewMemoryRepository(),
		Transactor: tx,
	})

	_, err := engine.AddImageToSeries(ctx, seriesOne, "i1")
	require.NoError(t, err)
	_, err = engine.RemoveImageFromSeries(ctx, seriesOne, "i1")
	require.NoError(t, err)
	require.NoError(t, engine.DeleteImage(ctx, "i1"))

	assert.Equal(t, 3, tx.runs)
}
