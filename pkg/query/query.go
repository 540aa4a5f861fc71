// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses optional list filters from URL query strings.
//
// A malformed filter value is treated as absent rather than as an error, so a
// gallery URL with a stale parameter still renders.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// String returns the trimmed value of key, or nil when absent or blank.
func String(values url.Values, key string) *string {
	value := strings.TrimSpace(values.Get(key))
	if value == "" {
		return nil
	}
	return &value
}

// Bool parses key as a boolean, or nil when absent or malformed.
func Bool(values url.Values, key string) *bool {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &parsed
}
