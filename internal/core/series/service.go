// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/validate"
	"github.com/taibuivan/folio/pkg/pagination"
	"github.com/taibuivan/folio/pkg/pointer"
	"github.com/taibuivan/folio/pkg/slice"
	"github.com/taibuivan/folio/pkg/slug"
	"github.com/taibuivan/folio/pkg/uuid"
)

// Relations is the part of the relationship engine the series service drives.
type Relations interface {
	AddImageToSeries(ctx context.Context, seriesID, imageID string) (*Series, error)
	RemoveImageFromSeries(ctx context.Context, seriesID, imageID string) (*Series, error)
	ReorderSeriesImages(ctx context.Context, seriesID string, order []string) (*Series, error)
	SetCoverImage(ctx context.Context, seriesID, imageID string) (*Series, error)
	RepairSeries(ctx context.Context, seriesID string) (*RepairReport, error)
	DeleteSeries(ctx context.Context, seriesID string) error
}

// ImageFinder resolves member images for series details.
type ImageFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]*image.Image, error)
}

// Page is one page of a series listing.
type Page struct {
	Items []*Series `json:"items"`
	Total int       `json:"total"`
}

// Service implements series use cases.
type Service struct {
	repo      Repository
	images    ImageFinder
	relations Relations
	cache     cache.Cache
	logger    *slog.Logger
}

// NewService wires the series service.
func NewService(repo Repository, images ImageFinder, relations Relations, readCache cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		images:    images,
		relations: relations,
		cache:     readCache,
		logger:    logger,
	}
}

// # Reads

func (service *Service) List(ctx context.Context, filter Filter, params pagination.Params) (*Page, error) {
	key := cache.Key(constants.CacheNamespaceSeries, "list", filter.CacheKey(), params.CacheKey())

	return cache.Fetch(ctx, service.cache, key, cache.DefaultTTL, func(ctx context.Context) (*Page, error) {
		list, total, err := service.repo.List(ctx, filter, params.Limit, params.Offset())
		if err != nil {
			return nil, err
		}
		return &Page{Items: list, Total: total}, nil
	})
}

/*
Get returns a series with its images populated, addressed by UUID or slug.

Description: Population follows the stored order and tolerates divergence
between the two sides of a membership. An identifier that no longer resolves,
or whose image points at another series, is skipped rather than failing the
read.
*/
func (service *Service) Get(ctx context.Context, idOrSlug string) (*Detail, error) {
	lookup, value := "slug", idOrSlug
	if normalized := uuid.Normalize(idOrSlug); normalized != "" {
		lookup, value = "id", normalized
	}

	key := cache.Key(constants.CacheNamespaceSeries, lookup, value)

	return cache.Fetch(ctx, service.cache, key, cache.DefaultTTL, func(ctx context.Context) (*Detail, error) {
		var (
			series *Series
			err    error
		)
		if lookup == "id" {
			series, err = service.repo.FindByID(ctx, value)
		} else {
			series, err = service.repo.FindBySlug(ctx, value)
		}
		if err != nil {
			return nil, err
		}

		return service.populate(ctx, series)
	})
}

func (service *Service) populate(ctx context.Context, series *Series) (*Detail, error) {
	members, err := service.images.FindByIDs(ctx, series.Images)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*image.Image, len(members))
	for _, member := range members {
		byID[member.ID] = member
	}

	items := make([]*image.Image, 0, len(series.Images))
	skipped := 0
	for _, imageID := range series.Images {
		member, ok := byID[imageID]
		if !ok || !member.InSeries(series.ID) {
			skipped++
			continue
		}
		items = append(items, member)
	}

	if skipped > 0 {
		service.logger.Warn("series_membership_diverged",
			slog.String("series_id", series.ID),
			slog.Int("skipped", skipped),
		)
	}

	return &Detail{Series: series, Items: items}, nil
}

// # Writes

/*
Create stores a new series and adds the requested images in order.

Description: The slug is derived from the title when omitted. Unknown images
are rejected with INVALID_REFERENCE before anything is stored. Members are
added one by one through the relationship engine so each image receives its
back-reference; the cover is set last and must be one of them.
*/
func (service *Service) Create(ctx context.Context, input CreateInput) (*Detail, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}

	series := &Series{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Slug:        strings.TrimSpace(input.Slug),
		Description: pointer.NilIfEmpty(input.Description),
		Images:      []string{},
		CategoryID:  pointer.NilIfEmpty(input.CategoryID),
		Featured:    input.Featured,
		Status:      input.Status,
	}
	if series.Slug == "" {
		series.Slug = slug.From(series.Title)
	}

	validator := validateSeries(series)
	validator.UUIDs(FieldImages, input.Images)
	validator.OptionalUUID(FieldCoverImage, input.CoverImageID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	images := slice.Unique(slice.Map(input.Images, strings.ToLower))
	cover := strings.ToLower(pointer.Val(input.CoverImageID))
	if cover != "" && !slices.Contains(images, cover) {
		return nil, apperr.InvalidReference("Cover image must be one of the series images")
	}

	// Every member must resolve before the series is stored.
	if err := service.requireImages(ctx, images); err != nil {
		return nil, err
	}

	if err := service.repo.Create(ctx, series); err != nil {
		return nil, err
	}
	service.invalidate(ctx)

	service.logger.Info("series_created", slog.String("series_id", series.ID), slog.String("slug", series.Slug))

	for _, imageID := range images {
		if _, err := service.relations.AddImageToSeries(ctx, series.ID, imageID); err != nil {
			return nil, err
		}
	}

	if cover != "" {
		if _, err := service.relations.SetCoverImage(ctx, series.ID, cover); err != nil {
			return nil, err
		}
	}

	return service.detail(ctx, series.ID)
}

func (service *Service) requireImages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	found, err := service.images.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}

	known := make(map[string]struct{}, len(found))
	for _, member := range found {
		known[member.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return apperr.InvalidReference("Image " + id + " does not exist")
		}
	}
	return nil
}

// Update applies a partial metadata update. A cover change is delegated to the
// relationship engine, which rejects images that are not members.
func (service *Service) Update(ctx context.Context, id string, patch Patch) (*Detail, error) {
	series, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		series.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Slug != nil {
		series.Slug = strings.TrimSpace(*patch.Slug)
	}
	if patch.Description != nil {
		series.Description = pointer.NilIfEmpty(patch.Description)
	}
	if patch.CategoryID != nil {
		series.CategoryID = pointer.NilIfEmpty(patch.CategoryID)
	}
	if patch.Featured != nil {
		series.Featured = *patch.Featured
	}
	if patch.Status != nil {
		series.Status = *patch.Status
	}

	validator := validateSeries(series)
	validator.OptionalUUID(FieldCoverImage, patch.CoverImageID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.Update(ctx, series); err != nil {
		return nil, err
	}
	service.invalidate(ctx)

	if patch.CoverImageID != nil && !pointer.Equal(patch.CoverImageID, series.CoverImageID) {
		if _, err := service.relations.SetCoverImage(ctx, id, strings.ToLower(*patch.CoverImageID)); err != nil {
			return nil, err
		}
	}

	service.logger.Info("series_updated", slog.String("series_id", id))
	return service.detail(ctx, id)
}

func validateSeries(series *Series) *validate.Validator {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, series.Title).MaxLen(FieldTitle, series.Title, maxTitleLength)
	validator.Required(FieldSlug, series.Slug).MaxLen(FieldSlug, series.Slug, maxSlugLength)
	if series.Slug != "" {
		validator.Slug(FieldSlug, series.Slug)
	}
	if series.Description != nil {
		validator.MaxLen(FieldDescription, *series.Description, maxDescriptionLength)
	}
	validator.OptionalUUID(FieldCategory, series.CategoryID)
	validator.OneOf(FieldStatus, string(series.Status), Statuses...)
	return validator
}

// Delete removes a series. Member images are kept and detached.
func (service *Service) Delete(ctx context.Context, id string) error {
	if err := service.relations.DeleteSeries(ctx, id); err != nil {
		return err
	}

	service.logger.Warn("series_deleted", slog.String("series_id", id))
	return nil
}

// # Membership

func (service *Service) AddImage(ctx context.Context, id string, input AddImageInput) (*Detail, error) {
	if err := (&validate.Validator{}).UUID(FieldImage, input.ImageID).Err(); err != nil {
		return nil, err
	}

	series, err := service.relations.AddImageToSeries(ctx, id, strings.ToLower(input.ImageID))
	if err != nil {
		return nil, err
	}
	return service.populate(ctx, series)
}

func (service *Service) RemoveImage(ctx context.Context, id, imageID string) (*Detail, error) {
	series, err := service.relations.RemoveImageFromSeries(ctx, id, imageID)
	if err != nil {
		return nil, err
	}
	return service.populate(ctx, series)
}

// Reorder sets the display order. Identifiers that are not current members
// are ignored, and members left out of the list leave the series.
func (service *Service) Reorder(ctx context.Context, id string, input ReorderInput) (*Detail, error) {
	validator := &validate.Validator{}
	validator.Custom(FieldImages, input.Images == nil, "This field is required")
	validator.Custom(FieldImages, len(input.Images) > maxReorderLength, "Too many images")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Malformed identifiers cannot be members; lowercase the rest to match stored ids.
	order := make([]string, 0, len(input.Images))
	for _, imageID := range input.Images {
		if normalized := uuid.Normalize(imageID); normalized != "" {
			order = append(order, normalized)
		}
	}

	series, err := service.relations.ReorderSeriesImages(ctx, id, order)
	if err != nil {
		return nil, err
	}
	return service.populate(ctx, series)
}

func (service *Service) SetCover(ctx context.Context, id string, input CoverInput) (*Detail, error) {
	if input.ImageID != "" {
		if err := (&validate.Validator{}).UUID(FieldImage, input.ImageID).Err(); err != nil {
			return nil, err
		}
	}

	series, err := service.relations.SetCoverImage(ctx, id, strings.ToLower(input.ImageID))
	if err != nil {
		return nil, err
	}
	return service.populate(ctx, series)
}

func (service *Service) Repair(ctx context.Context, id string) (*RepairReport, error) {
	return service.relations.RepairSeries(ctx, id)
}

func (service *Service) detail(ctx context.Context, id string) (*Detail, error) {
	series, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return service.populate(ctx, series)
}

func (service *Service) invalidate(ctx context.Context) {
	service.cache.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceSeries))
}
