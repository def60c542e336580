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
	"fmt"
	"strconv"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magpierre/arrowcast/cast"
)

// sampleTable has 20 rows: huge-but-exact integer ids, a two-genre column
// well within the default cardinality bound, and all-distinct free text.
func sampleTable(t *testing.T) arrow.Table {
	t.Helper()

	ids := make([]any, 20)
	genres := make([]any, 20)
	notes := make([]any, 20)
	for i := range ids {
		ids[i] = strconv.Itoa(i + 1)
		if i%2 == 0 {
			genres[i] = "drama"
		} else {
			genres[i] = "comedy"
		}
		notes[i] = fmt.Sprintf("free-form remark number %d", i)
	}
	ids[0] = "18446744073709551615"
	ids[3] = nil

	return table(t,
		[]string{"id", "genre", "note"},
		[]arrow.Array{column(ids...), column(genres...), column(notes...)},
	)
}

func TestAutocastTable(t *testing.T) {
	tbl := sampleTable(t)
	defer tbl.Release()

	out, err := cast.NewAutocast().CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, tbl.NumRows(), out.NumRows())
	assert.Equal(t, tbl.NumCols(), out.NumCols())

	sem, ok := semantic(t, out, "id")
	require.True(t, ok)
	assert.Equal(t, "number[UInt64]", sem)

	sem, ok = semantic(t, out, "genre")
	require.True(t, ok)
	assert.Equal(t, "category", sem)

	sem, ok = semantic(t, out, "note")
	require.True(t, ok)
	assert.Equal(t, "text", sem)
	assert.Equal(t, arrow.STRING, out.Schema().Field(2).Type.ID())
}

func TestAutocastOrderingDeterminism(t *testing.T) {
	// Numeric-looking low-cardinality strings: Number is attempted before
	// Category and always wins, even though Category would accept too.
	a := cast.NewAutocast(cast.NewNumber(), cast.NewCategory(), cast.NewText())

	arr := column("1", "2", "1", "2", "1")
	defer arr.Release()

	conv, err := a.CastColumn("votes", arr)
	require.NoError(t, err)
	require.NotNil(t, conv)
	defer conv.Result.Release()

	assert.Equal(t, "number[UInt8]", conv.Meta[cast.MetaSemantic])
}

func TestAutocastNoneApply(t *testing.T) {
	a := cast.NewAutocast(cast.NewNumber(), cast.NewBoundedCategory(2))

	tbl := table(t, []string{"v"}, []arrow.Array{column("aa", "bb", "cc")})
	defer tbl.Release()

	out, err := a.CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	// Column passes through: original type, no metadata.
	assert.Equal(t, arrow.STRING, out.Schema().Field(0).Type.ID())
	_, ok := semantic(t, out, "v")
	assert.False(t, ok)
}

func TestAutocastPerColumnOverride(t *testing.T) {
	a := cast.NewAutocast()
	a.Columns = map[string][]cast.Converter{
		"code": {cast.NewText()},
	}

	tbl := table(t, []string{"code"}, []arrow.Array{column("1", "2", "3")})
	defer tbl.Release()

	out, err := a.CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	sem, ok := semantic(t, out, "code")
	require.True(t, ok)
	assert.Equal(t, "text", sem)
}

func TestAutocastIdempotent(t *testing.T) {
	tbl := sampleTable(t)
	defer tbl.Release()

	a := cast.NewAutocast()

	once, err := a.CastTable(tbl)
	require.NoError(t, err)
	defer once.Release()

	twice, err := a.CastTable(once)
	require.NoError(t, err)
	defer twice.Release()

	for i := 0; i < int(once.NumCols()); i++ {
		f1, f2 := once.Schema().Field(i), twice.Schema().Field(i)
		assert.True(t, arrow.TypeEqual(f1.Type, f2.Type), "column %s changed type on recast", f1.Name)

		s1, ok1 := semantic(t, once, f1.Name)
		s2, ok2 := semantic(t, twice, f2.Name)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, s1, s2)
	}
}

func TestAutocastParallelMatchesSequential(t *testing.T) {
	tbl := sampleTable(t)
	defer tbl.Release()

	seq, err := cast.NewAutocast().CastTable(tbl)
	require.NoError(t, err)
	defer seq.Release()

	par := cast.NewAutocast()
	par.Workers = 4
	out, err := par.CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	require.True(t, seq.Schema().Equal(out.Schema()))
}

func TestAutocastAllNullColumn(t *testing.T) {
	tbl := table(t, []string{"empty"}, []arrow.Array{column(nil, nil)})
	defer tbl.Release()

	out, err := cast.NewAutocast().CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, arrow.STRING, out.Schema().Field(0).Type.ID())
	_, ok := semantic(t, out, "empty")
	assert.False(t, ok)
}

func TestAutocastFallback(t *testing.T) {
	a := cast.NewAutocast(cast.NewNumber())
	a.Fallback = cast.NewCategory()

	tbl := table(t, []string{"v"}, []arrow.Array{column("x", "y", "x")})
	defer tbl.Release()

	out, err := a.CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	sem, ok := semantic(t, out, "v")
	require.True(t, ok)
	assert.Equal(t, "category", sem)
}

func TestCastExplicitIsolation(t *testing.T) {
	tbl := table(t,
		[]string{"id", "genre"},
		[]arrow.Array{column("1", "2"), column("drama", "comedy")},
	)
	defer tbl.Release()

	c := cast.NewCast(map[string]cast.Converter{"id": cast.NewNumber()})
	out, err := c.CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	sem, ok := semantic(t, out, "id")
	require.True(t, ok)
	assert.Equal(t, "number[UInt8]", sem)

	// The unnamed column keeps its text form and gains no metadata.
	assert.Equal(t, arrow.STRING, out.Schema().Field(1).Type.ID())
	_, ok = semantic(t, out, "genre")
	assert.False(t, ok)
}

func TestCastDeclinedLeavesColumn(t *testing.T) {
	tbl := table(t, []string{"id"}, []arrow.Array{column("not", "numbers")})
	defer tbl.Release()

	c := cast.NewCast(map[string]cast.Converter{"id": cast.NewNumber()})
	out, err := c.CastTable(tbl)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, arrow.STRING, out.Schema().Field(0).Type.ID())
	_, ok := semantic(t, out, "id")
	assert.False(t, ok)
}

func TestCastConfigErrorPropagates(t *testing.T) {
	bad := cast.NewNumber()
	bad.Threshold = 2.0

	tbl := table(t, []string{"id"}, []arrow.Array{column("1")})
	defer tbl.Release()

	_, err := cast.NewCast(map[string]cast.Converter{"id": bad}).CastTable(tbl)
	require.ErrorIs(t, err, cast.ErrConfig)
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := cast.DefaultRegistry()

	for _, name := range []string{"number", "Boolean", "list", "timestamp", "url", "category", "text"} {
		c, err := reg.New(name)
		require.NoError(t, err, name)
		require.NotNil(t, c, name)
	}

	_, err := reg.New("decimal")
	require.ErrorIs(t, err, cast.ErrConfig)
}
