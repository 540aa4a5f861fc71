// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "Northern Light", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("title", tt.value)

			if !tt.hasError {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
				return
			}

			ae := apperr.As(v.Err())
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			assert.Equal(t, "title", ae.Details[0].Field)
		})
	}
}

/*
TestValidator_UUID checks identifier shape validation.
*/
func TestValidator_UUID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"v7_lowercase", "01920c2e-7d4a-7b3c-9f11-2a5e8c1d3b40", true},
		{"uppercase", "01920C2E-7D4A-7B3C-9F11-2A5E8C1D3B40", true},
		{"truncated", "01920c2e-7d4a", false},
		{"ghost_literal", "I_GHOST", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := (&validate.Validator{}).UUID("id", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_UUIDs reports the index of the first malformed element.
*/
func TestValidator_UUIDs(t *testing.T) {
	err := (&validate.Validator{}).UUIDs("images", []string{
		"01920c2e-7d4a-7b3c-9f11-2a5e8c1d3b40",
		"nope",
		"also-nope",
	}).Err()

	ae := apperr.As(err)
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "images[1]", ae.Details[0].Field)
}

/*
TestValidator_URL accepts absolute http(s) and root-relative paths only.
*/
func TestValidator_URL(t *testing.T) {
	tests := map[string]bool{
		"https://cdn.folio.photo/img/1.webp": true,
		"/uploads/1.webp":                    true,
		"//evil.example/1.webp":              false,
		"ftp://cdn.folio.photo/1.webp":       false,
		"not a url":                          false,
	}

	for value, isValid := range tests {
		t.Run(value, func(t *testing.T) {
			v := (&validate.Validator{}).URL("url", value)
			assert.Equal(t, !isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("title", "").
		Slug("slug", "Not A Slug").
		OneOf("status", "deleted", "draft", "published").
		Custom("order", true, "Must not be negative").
		Err()

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 4)
}
