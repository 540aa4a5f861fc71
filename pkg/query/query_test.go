// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/folio/pkg/query"
)

func TestBool(t *testing.T) {
	values := url.Values{"featured": {"true"}, "broken": {"maybe"}}

	featured := query.Bool(values, "featured")
	require.NotNil(t, featured)
	assert.True(t, *featured)

	assert.Nil(t, query.Bool(values, "broken"))
	assert.Nil(t, query.Bool(values, "missing"))
}

func TestString(t *testing.T) {
	values := url.Values{"status": {" published "}, "blank": {"  "}}

	status := query.String(values, "status")
	require.NotNil(t, status)
	assert.Equal(t, "published", *status)
	assert.Nil(t, query.String(values, "blank"))
}
