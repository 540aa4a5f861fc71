// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/validate"
	"github.com/taibuivan/folio/pkg/pagination"
	"github.com/taibuivan/folio/pkg/pointer"
	"github.com/taibuivan/folio/pkg/uuid"
)

// Relations is the part of the relationship engine the image service drives.
type Relations interface {
	DeleteImage(ctx context.Context, imageID string) error
	RecountCategories(ctx context.Context, categoryIDs ...string) error
}

// Page is one page of an image listing.
type Page struct {
	Items []*Image `json:"items"`
	Total int      `json:"total"`
}

// Service implements image use cases on top of [Repository].
type Service struct {
	repo      Repository
	relations Relations
	cache     cache.Cache
	logger    *slog.Logger
}

// NewService wires the image service.
func NewService(repo Repository, relations Relations, readCache cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		relations: relations,
		cache:     readCache,
		logger:    logger,
	}
}

// # Reads

func (service *Service) List(ctx context.Context, filter Filter, params pagination.Params) (*Page, error) {
	key := cache.Key(constants.CacheNamespaceImages, "list", filter.CacheKey(), params.CacheKey())

	return cache.Fetch(ctx, service.cache, key, cache.DefaultTTL, func(ctx context.Context) (*Page, error) {
		images, total, err := service.repo.List(ctx, filter, params.Limit, params.Offset())
		if err != nil {
			return nil, err
		}
		return &Page{Items: images, Total: total}, nil
	})
}

func (service *Service) Get(ctx context.Context, id string) (*Image, error) {
	key := cache.Key(constants.CacheNamespaceImages, "id", id)

	return cache.Fetch(ctx, service.cache, key, cache.DefaultTTL, func(ctx context.Context) (*Image, error) {
		return service.repo.FindByID(ctx, id)
	})
}

// # Writes

/*
Create registers an uploaded image.

Description: Validates the payload, assigns a UUIDv7 and defaults the status
to draft. A published image with a category triggers a recount of that
category.

Returns:
  - *Image: The stored image
  - error: VALIDATION_ERROR, INVALID_REFERENCE for an unknown category
*/
func (service *Service) Create(ctx context.Context, input CreateInput) (*Image, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}
	input.CategoryID = pointer.NilIfEmpty(input.CategoryID)

	image := &Image{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		URL:          input.URL,
		ThumbnailURL: input.ThumbnailURL,
		CategoryID:   input.CategoryID,
		Featured:     input.Featured,
		Order:        input.Order,
		Status:       input.Status,
	}

	if err := validateImage(image); err != nil {
		return nil, err
	}

	if err := service.repo.Create(ctx, image); err != nil {
		return nil, err
	}

	service.invalidate(ctx)

	if image.Published() && image.CategoryID != nil {
		if err := service.relations.RecountCategories(ctx, *image.CategoryID); err != nil {
			return nil, err
		}
	}

	service.logger.Info("image_created", slog.String("image_id", image.ID), slog.String("status", string(image.Status)))
	return image, nil
}

/*
Update applies a partial update.

Description: When the category or the publish status changes, both the old
and the new category are recounted so their image counts stay exact.
*/
func (service *Service) Update(ctx context.Context, id string, patch Patch) (*Image, error) {
	image, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousCategory := pointer.Val(image.CategoryID)
	previousStatus := image.Status

	applyPatch(image, patch)

	if err := validateImage(image); err != nil {
		return nil, err
	}

	if err := service.repo.Update(ctx, image); err != nil {
		return nil, err
	}

	service.invalidate(ctx)

	currentCategory := pointer.Val(image.CategoryID)
	if previousCategory != currentCategory || previousStatus != image.Status {
		if err := service.relations.RecountCategories(ctx, previousCategory, currentCategory); err != nil {
			return nil, err
		}
	}

	service.logger.Info("image_updated", slog.String("image_id", id))
	return image, nil
}

func applyPatch(image *Image, patch Patch) {
	if patch.Title != nil {
		image.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		image.Description = pointer.NilIfEmpty(patch.Description)
	}
	if patch.URL != nil {
		image.URL = *patch.URL
	}
	if patch.ThumbnailURL != nil {
		image.ThumbnailURL = pointer.NilIfEmpty(patch.ThumbnailURL)
	}
	if patch.CategoryID != nil {
		image.CategoryID = pointer.NilIfEmpty(patch.CategoryID)
	}
	if patch.Featured != nil {
		image.Featured = *patch.Featured
	}
	if patch.Order != nil {
		image.Order = *patch.Order
	}
	if patch.Status != nil {
		image.Status = *patch.Status
	}
}

func validateImage(image *Image) error {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, image.Title).MaxLen(FieldTitle, image.Title, maxTitleLength)
	validator.Required(FieldURL, image.URL)

	if image.URL != "" {
		validator.URL(FieldURL, image.URL)
	}
	if image.ThumbnailURL != nil {
		validator.URL(FieldThumbnailURL, *image.ThumbnailURL)
	}
	if image.Description != nil {
		validator.MaxLen(FieldDescription, *image.Description, maxDescriptionLength)
	}

	validator.OptionalUUID(FieldCategory, image.CategoryID)
	validator.OneOf(FieldStatus, string(image.Status), Statuses...)
	validator.Custom(FieldOrder, image.Order < 0, "Must not be negative")

	return validator.Err()
}

// Like increments the like counter and returns the new total.
func (service *Service) Like(ctx context.Context, id string) (int64, error) {
	return service.increment(ctx, id, CounterLikes)
}

// View increments the view counter and returns the new total.
func (service *Service) View(ctx context.Context, id string) (int64, error) {
	return service.increment(ctx, id, CounterViews)
}

func (service *Service) increment(ctx context.Context, id string, counter Counter) (int64, error) {
	value, err := service.repo.Increment(ctx, id, counter)
	if err != nil {
		return 0, err
	}

	// Cached payloads embed the counters.
	service.invalidate(ctx)
	return value, nil
}

// Delete removes an image through the relationship engine, which first
// detaches it from its series and recounts its category.
func (service *Service) Delete(ctx context.Context, id string) error {
	if err := service.relations.DeleteImage(ctx, id); err != nil {
		return err
	}

	service.logger.Warn("image_deleted", slog.String("image_id", id))
	return nil
}

// invalidate evicts image reads and the series details that embed images.
func (service *Service) invalidate(ctx context.Context) {
	service.cache.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceImages))
	service.cache.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceSeries))
}
