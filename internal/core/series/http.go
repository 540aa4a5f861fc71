// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

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
	router.Get("/", handler.listSeries)
	router.Get("/{idOrSlug}", handler.getSeries)

	// Admin console
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleEditor))

		adminRoute.Post("/", handler.createSeries)
		adminRoute.Patch("/{id}", handler.updateSeries)

		adminRoute.Post("/{id}/images", handler.addImage)
		adminRoute.Delete("/{id}/images/{imageID}", handler.removeImage)
		adminRoute.Put("/{id}/images/order", handler.reorderImages)
		adminRoute.Put("/{id}/cover", handler.setCover)
		adminRoute.Post("/{id}/repair", handler.repairSeries)

		adminRoute.With(middleware.RequireRole(sec.RoleOwner)).Delete("/{id}", handler.deleteSeries)
	})
}

func (handler *Handler) listSeries(writer http.ResponseWriter, request *http.Request) {
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
	}

	validator := &validate.Validator{}
	if status := query.String(values, "status"); status != nil {
		validator.OneOf(FieldStatus, *status, Statuses...)
		filter.Status = (*Status)(status)
	}
	validator.OptionalUUID(FieldCategory, filter.CategoryID)

	return filter, validator.Err()
}

func (handler *Handler) getSeries(writer http.ResponseWriter, request *http.Request) {
	idOrSlug := requestutil.Param(request, "idOrSlug")

	detail, err := handler.service.Get(request.Context(), idOrSlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) createSeries(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, detail)
}

func (handler *Handler) updateSeries(writer http.ResponseWriter, request *http.Request) {
	seriesID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.Update(request.Context(), seriesID, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) deleteSeries(writer http.ResponseWriter, request *http.Request) {
	seriesID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), seriesID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Membership

func (handler *Handler) addImage(writer http.ResponseWriter, request *http.Request) {
	seriesID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input AddImageInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.AddImage(request.Context(), seriesID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) removeImage(writer http.ResponseWriter, request *http.Request) {
	seriesID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	imageID, err := requestutil.ID(request, "imageID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.RemoveImage(request.Context(), seriesID, imageID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) reorderImages(writer http.ResponseWriter, request *http.Request) {
	seriesID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ReorderInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.Reorder(request.Context(), seriesID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) setCover(writer http.ResponseWriter, request *http.Request) {
	seriesID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CoverInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.SetCover(request.Context(), seriesID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) repairSeries(writer http.ResponseWriter, request *http.Request) {
	seriesID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	report, err := handler.service.Repair(request.Context(), seriesID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}
