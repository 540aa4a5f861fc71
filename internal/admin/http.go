// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/folio/internal/core/relation"
	"github.com/taibuivan/folio/internal/platform/middleware"
	requestutil "github.com/taibuivan/folio/internal/platform/request"
	"github.com/taibuivan/folio/internal/platform/respond"
	"github.com/taibuivan/folio/internal/platform/sec"
)

// Maintenance is the portfolio-wide consistency pass, satisfied by [relation.Engine].
type Maintenance interface {
	RepairAll(ctx context.Context) (*relation.RepairSummary, error)
}

// Handler implements the admin session and maintenance endpoints.
type Handler struct {
	service      *Service
	maintenance  Maintenance
	loginLimiter func(http.Handler) http.Handler
}

// NewHandler constructs a [Handler].
//
// loginLimiter wraps POST /login only. Pass nil to rely on the global limiter.
func NewHandler(service *Service, maintenance Maintenance, loginLimiter func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, maintenance: maintenance, loginLimiter: loginLimiter}
}

// RegisterRoutes mounts the session endpoints on router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	login := router.With()
	if handler.loginLimiter != nil {
		login = router.With(handler.loginLimiter)
	}
	login.Post("/login", handler.login)

	router.With(middleware.RequireRole(sec.RoleEditor)).Get("/me", handler.me)
	router.With(middleware.RequireRole(sec.RoleOwner)).Post("/repair", handler.repairAll)
}

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Tokens must never be cached by intermediaries.
	writer.Header().Set("Cache-Control", "no-store")
	respond.OK(writer, session)
}

type profile struct {
	Username  string    `json:"username"`
	Role      sec.Role  `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredAdmin(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current := profile{Username: claims.Username, Role: claims.Role}
	if claims.ExpiresAt != nil {
		current.ExpiresAt = claims.ExpiresAt.Time
	}
	respond.OK(writer, current)
}

func (handler *Handler) repairAll(writer http.ResponseWriter, request *http.Request) {
	summary, err := handler.maintenance.RepairAll(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, summary)
}
