// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/core/category"
	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
	"github.com/taibuivan/folio/internal/platform/sec"
)

// asAdmin injects claims the way the authentication middleware does.
func asAdmin(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := ctxutil.WithAdmin(request.Context(), &sec.AuthClaims{Username: "admin", Role: role})
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

func newRouter(f *fixture, role sec.Role) http.Handler {
	router := chi.NewRouter()
	router.Use(asAdmin(role))
	router.Route("/categories", category.NewHandler(f.service).RegisterRoutes)
	return router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, strings.NewReader(body)))
	return recorder
}

func decodeCategory(t *testing.T, recorder *httptest.ResponseRecorder) category.Category {
	t.Helper()

	var body struct {
		Data category.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Data
}

/*
TestHandler_Categories covers create, recount and role-gated delete.
*/
func TestHandler_Categories(t *testing.T) {
	f := newFixture(t)
	editor := newRouter(f, sec.RoleEditor)
	owner := newRouter(f, sec.RoleOwner)

	recorder := serve(editor, http.MethodPost, "/categories", `{"name":"Architecture"}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	created := decodeCategory(t, recorder)
	assert.Equal(t, "architecture", created.Slug)

	f.addImage(t, created.ID, image.StatusPublished)

	recorder = serve(editor, http.MethodPost, "/categories/"+created.ID+"/recount", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, decodeCategory(t, recorder).ImageCount)

	recorder = serve(editor, http.MethodGet, "/categories/architecture", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, created.ID, decodeCategory(t, recorder).ID)

	recorder = serve(editor, http.MethodPatch, "/categories/"+created.ID, `{"image_count":99}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	assert.Equal(t, http.StatusConflict, serve(editor, http.MethodPost, "/categories", `{"name":"Architecture"}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(editor, http.MethodDelete, "/categories/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(owner, http.MethodDelete, "/categories/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(owner, http.MethodGet, "/categories/"+created.ID, "").Code)
}
