// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/validate"
	"github.com/taibuivan/folio/pkg/pagination"
	"github.com/taibuivan/folio/pkg/pointer"
	"github.com/taibuivan/folio/pkg/slug"
	"github.com/taibuivan/folio/pkg/uuid"
)

// Relations is the part of the relationship engine the category service drives.
type Relations interface {
	DeleteCategory(ctx context.Context, categoryID string) error
	RecomputeCategoryCount(ctx context.Context, categoryID string) (*Category, error)
}

// Page is one page of a category listing.
type Page struct {
	Items []*Category `json:"items"`
	Total int         `json:"total"`
}

// Service implements category use cases.
type Service struct {
	repo      Repository
	relations Relations
	cache     cache.Cache
	logger    *slog.Logger
}

// NewService wires the category service.
func NewService(repo Repository, relations Relations, readCache cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		relations: relations,
		cache:     readCache,
		logger:    logger,
	}
}

func (service *Service) List(ctx context.Context, params pagination.Params) (*Page, error) {
	key := cache.Key(constants.CacheNamespaceCategories, "list", params.CacheKey())

	return cache.Fetch(ctx, service.cache, key, cache.DefaultTTL, func(ctx context.Context) (*Page, error) {
		categories, total, err := service.repo.List(ctx, params.Limit, params.Offset())
		if err != nil {
			return nil, err
		}
		return &Page{Items: categories, Total: total}, nil
	})
}

// Get resolves a category by UUID or slug.
func (service *Service) Get(ctx context.Context, idOrSlug string) (*Category, error) {
	if id := uuid.Normalize(idOrSlug); id != "" {
		key := cache.Key(constants.CacheNamespaceCategories, "id", id)
		return cache.Fetch(ctx, service.cache, key, cache.DefaultTTL, func(ctx context.Context) (*Category, error) {
			return service.repo.FindByID(ctx, id)
		})
	}

	key := cache.Key(constants.CacheNamespaceCategories, "slug", idOrSlug)
	return cache.Fetch(ctx, service.cache, key, cache.DefaultTTL, func(ctx context.Context) (*Category, error) {
		return service.repo.FindBySlug(ctx, idOrSlug)
	})
}

func (service *Service) Create(ctx context.Context, input CreateInput) (*Category, error) {
	category := &Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Slug:        strings.TrimSpace(input.Slug),
		Description: pointer.NilIfEmpty(input.Description),
	}
	if category.Slug == "" {
		category.Slug = slug.From(category.Name)
	}

	if err := validateCategory(category); err != nil {
		return nil, err
	}

	if err := service.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	service.invalidate(ctx)

	service.logger.Info("category_created", slog.String("category_id", category.ID), slog.String("slug", category.Slug))
	return category, nil
}

func (service *Service) Update(ctx context.Context, id string, patch Patch) (*Category, error) {
	category, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		category.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Slug != nil {
		category.Slug = strings.TrimSpace(*patch.Slug)
	}
	if patch.Description != nil {
		category.Description = pointer.NilIfEmpty(patch.Description)
	}

	if err := validateCategory(category); err != nil {
		return nil, err
	}

	if err := service.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	service.invalidate(ctx)

	service.logger.Info("category_updated", slog.String("category_id", id))
	return category, nil
}

func validateCategory(category *Category) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, category.Name).MaxLen(FieldName, category.Name, maxNameLength)
	validator.Required(FieldSlug, category.Slug).MaxLen(FieldSlug, category.Slug, maxSlugLength)
	if category.Slug != "" {
		validator.Slug(FieldSlug, category.Slug)
	}
	if category.Description != nil {
		validator.MaxLen(FieldDescription, *category.Description, maxDescriptionLength)
	}
	return validator.Err()
}

// Delete removes a category. Its images and series are kept and left uncategorized.
func (service *Service) Delete(ctx context.Context, id string) error {
	if err := service.relations.DeleteCategory(ctx, id); err != nil {
		return err
	}

	service.logger.Warn("category_deleted", slog.String("category_id", id))
	return nil
}

// Recount recomputes the published-image count from the image collection.
func (service *Service) Recount(ctx context.Context, id string) (*Category, error) {
	return service.relations.RecomputeCategoryCount(ctx, id)
}

func (service *Service) invalidate(ctx context.Context) {
	service.cache.Invalidate(ctx, cache.Prefix(constants.CacheNamespaceCategories))
}
