// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/folio/pkg/slice"
)

func TestFilter_NeverNil(t *testing.T) {
	got := slice.Filter([]string{"a"}, func(string) bool { return false })
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"i3", "i1", "i2"}, slice.Unique([]string{"i3", "i1", "i3", "i2", "i1"}))
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"i1", "i3"}, slice.Difference([]string{"i1", "i2", "i3"}, []string{"i2", "ghost"}))
}

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, slice.Map([]string{"a", "b"}, strings.ToUpper))
	assert.Nil(t, slice.Map[string, string](nil, strings.ToUpper))
}
