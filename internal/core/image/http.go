// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/folio/internal/platform/middleware"
	requestutil "github.com/taibuivan/folio/internal/platform/request"
	"github.com/taibuivan/folio/internal/platform/respond"
	"github.com/taibuivan/folio/internal/platform/sec"
	"github.com/taibuivan/folio/internal/platform/validate"
	"github.com/taibuivan/folio/pkg/pagination"
	"github.com/taibuivan/folio/pkg/query"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public
	router.Get("/", handler.listImages)
	router.Get("/{id}", handler.getImage)
	router.Post("/{id}/like", handler.likeImage)
	router.Post("/{id}/view", handler.viewImage)

	// Admin console
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleEditor))

		adminRoute.Post("/", handler.createImage)
		adminRoute.Patch("/{id}", handler.updateImage)

		adminRoute.With(middleware.RequireRole(sec.RoleOwner)).Delete("/{id}", handler.deleteImage)
	})
}

func (handler *Handler) listImages(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	filter, err := filterFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.service.List(request.Context(), filter, paginationParams)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, page.Items, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, page.Total))
}

func filterFromRequest(request *http.Request) (Filter, error) {
	values := request.URL.Query()

	filter := Filter{
		Featured:   query.Bool(values, "featured"),
		CategoryID: query.String(values, "category"),
		SeriesID:   query.String(values, "series"),
	}

	validator := &validate.Validator{}
	if status := query.String(values, "status"); status != nil {
		validator.OneOf(FieldStatus, *status, Statuses...)
		filter.Status = (*Status)(status)
	}
	validator.OptionalUUID("category", filter.CategoryID)
	validator.OptionalUUID("series", filter.SeriesID)

	return filter, validator.Err()
}

func (handler *Handler) getImage(writer http.ResponseWriter, request *http.Request) {
	imageID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	image, err := handler.service.Get(request.Context(), imageID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, image)
}

func (handler *Handler) createImage(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	image, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, image)
}

func (handler *Handler) updateImage(writer http.ResponseWriter, request *http.Request) {
	imageID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	image, err := handler.service.Update(request.Context(), imageID, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, image)
}

type counterResponse struct {
	ID    string `json:"id"`
	Views *int64 `json:"views,omitempty"`
	Likes *int64 `json:"likes,omitempty"`
}

func (handler *Handler) likeImage(writer http.ResponseWriter, request *http.Request) {
	imageID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	likes, err := handler.service.Like(request.Context(), imageID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, counterResponse{ID: imageID, Likes: &likes})
}

func (handler *Handler) viewImage(writer http.ResponseWriter, request *http.Request) {
	imageID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views, err := handler.service.View(request.Context(), imageID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, counterResponse{ID: imageID, Views: &views})
}

func (handler *Handler) deleteImage(writer http.ResponseWriter, request *http.Request) {
	imageID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), imageID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
