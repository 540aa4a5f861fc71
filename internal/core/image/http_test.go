// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/middleware"
	"github.com/taibuivan/folio/internal/platform/sec"
)

type stubVerifier map[string]*sec.AuthClaims

func (verifier stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if claims, ok := verifier[token]; ok {
		return claims, nil
	}
	return nil, errors.New("unknown token")
}

func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(stubVerifier{
		"owner":  {Username: "admin", Role: sec.RoleOwner},
		"editor": {Username: "curator", Role: sec.RoleEditor},
	}))
	router.Route("/images", image.NewHandler(f.service).RegisterRoutes)
	return router
}

func serve(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
	Code string `json:"code"`
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestHandler_Images exercises the public and admin image routes.
*/
func TestHandler_Images(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	recorder := serve(router, http.MethodPost, "/images", "editor",
		`{"title":"Pier","url":"/uploads/pier.jpg","status":"published"}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created image.Image
	require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &created))

	recorder = serve(router, http.MethodGet, "/images?status=published", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, decode(t, recorder).Meta.Total)

	recorder = serve(router, http.MethodPost, "/images/"+created.ID+"/like", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"id":"`+created.ID+`","likes":1}`, string(decode(t, recorder).Data))

	recorder = serve(router, http.MethodPost, "/images/"+created.ID+"/view", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"id":"`+created.ID+`","views":1}`, string(decode(t, recorder).Data))

	recorder = serve(router, http.MethodPatch, "/images/"+strings.ToUpper(created.ID), "editor", `{"featured":true}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var updated image.Image
	require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &updated))
	assert.True(t, updated.Featured)

	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodDelete, "/images/"+created.ID, "editor", "").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodDelete, "/images/"+created.ID, "owner", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/images/"+created.ID, "", "").Code)
}

/*
TestHandler_Images_Errors maps invalid input to error codes.
*/
func TestHandler_Images_Errors(t *testing.T) {
	router := newRouter(newFixture(t))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
		code   string
	}{
		{"bad_filter", http.MethodGet, "/images?series=abc", "", "", http.StatusBadRequest, apperr.CodeValidation},
		{"bad_id", http.MethodGet, "/images/abc", "", "", http.StatusBadRequest, apperr.CodeValidation},
		{"series_not_patchable", http.MethodPatch, "/images/0190a0b2-1f6e-7c3a-9d4b-2a1c3e5f7a9b", "editor", `{"series":null}`, http.StatusBadRequest, apperr.CodeValidation},
		{"trailing_json", http.MethodPost, "/images", "editor", `{"title":"a","url":"/a.jpg"}{}`, http.StatusBadRequest, apperr.CodeValidation},
		{"unknown_category", http.MethodPost, "/images", "editor", `{"title":"a","url":"/a.jpg","category":"0190a0b2-1f6e-7c3a-9d4b-2a1c3e5f7a9b"}`, http.StatusUnprocessableEntity, apperr.CodeInvalidReference},
		{"anonymous", http.MethodPost, "/images", "", `{}`, http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"forged_token", http.MethodPost, "/images", "forged", `{}`, http.StatusUnauthorized, apperr.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(router, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			assert.Equal(t, tt.code, decode(t, recorder).Code)
		})
	}
}
