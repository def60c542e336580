// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cast_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magpierre/arrowcast/cast"
)

func dictString(t *testing.T, arr arrow.Array, pos int) string {
	t.Helper()
	d, ok := arr.(*array.Dictionary)
	require.True(t, ok, "expected dictionary array, got %T", arr)
	return d.Dictionary().(*array.String).Value(d.GetValueIndex(pos))
}

func TestURLRecognition(t *testing.T) {
	arr := column(
		"https://example.com/path?q=1",
		"http://www.data.gov",
		"  https://example.com/path?q=1", // leading whitespace tolerated
		"localhost:8080/health",
		"192.168.0.1/admin",
	)
	defer arr.Release()

	conv := convert(t, cast.NewURL(), arr)
	defer conv.Result.Release()

	assert.Equal(t, "url", conv.Meta[cast.MetaSemantic])
	assert.Equal(t, arrow.DICTIONARY, conv.Result.DataType().ID())

	// Repeated URLs intern to the same dictionary entry.
	d := conv.Result.(*array.Dictionary)
	assert.Equal(t, d.GetValueIndex(0), d.GetValueIndex(2))
}

func TestURLThreshold(t *testing.T) {
	arr := column("https://example.com", "definitely not a url at all")
	defer arr.Release()

	declined(t, cast.NewURL(), arr)

	u := cast.NewURL()
	u.Threshold = 0.5
	conv := convert(t, u, arr)
	defer conv.Result.Release()

	assert.True(t, conv.Result.IsValid(0))
	assert.True(t, conv.Result.IsNull(1))
}

func TestCategoryUnbounded(t *testing.T) {
	arr := column("drama", "comedy", "drama", nil)
	defer arr.Release()

	conv := convert(t, cast.NewCategory(), arr)
	defer conv.Result.Release()

	assert.Equal(t, "category", conv.Meta[cast.MetaSemantic])
	assert.Equal(t, "drama", dictString(t, conv.Result, 0))
	assert.Equal(t, "comedy", dictString(t, conv.Result, 1))
	assert.True(t, conv.Result.IsNull(3))

	d := conv.Result.(*array.Dictionary)
	assert.Equal(t, 2, d.Dictionary().Len())
}

func TestCategoryAbsoluteBound(t *testing.T) {
	arr := column("a", "b", "c")
	defer arr.Release()

	declined(t, cast.NewBoundedCategory(2), arr)

	conv := convert(t, cast.NewBoundedCategory(3), arr)
	conv.Result.Release()
}

func TestCategoryFractionalBound(t *testing.T) {
	// 2 distinct out of 10 valid: 20% cardinality.
	arr := column("x", "y", "x", "y", "x", "y", "x", "y", "x", "y")
	defer arr.Release()

	declined(t, cast.NewBoundedCategory(0.1), arr)

	conv := convert(t, cast.NewBoundedCategory(0.2), arr)
	conv.Result.Release()
}

func TestTextAlwaysApplies(t *testing.T) {
	arr := column("an arbitrarily long free-form remark", "x", nil)
	defer arr.Release()

	conv := convert(t, cast.NewText(), arr)
	defer conv.Result.Release()

	assert.Equal(t, "text", conv.Meta[cast.MetaSemantic])
	assert.Equal(t, arrow.STRING, conv.Result.DataType().ID())
	assert.Equal(t, arr.Len(), conv.Result.Len())
}

func TestStringConvertersDeclineNonStrings(t *testing.T) {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	b.AppendValues([]int64{1, 2}, nil)
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	declined(t, cast.NewURL(), arr)
	declined(t, cast.NewCategory(), arr)
	declined(t, cast.NewText(), arr)
}
