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
	"github.com/stretchr/testify/require"

	"github.com/magpierre/arrowcast/cast"
)

// column builds a string array; nil entries become nulls.
func column(vals ...any) arrow.Array {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()

	for _, v := range vals {
		if v == nil {
			b.AppendNull()
		} else {
			b.Append(v.(string))
		}
	}
	return b.NewStringArray()
}

// table assembles single-chunk columns into a table.
func table(t *testing.T, names []string, arrs []arrow.Array) arrow.Table {
	t.Helper()
	require.Equal(t, len(names), len(arrs))

	fields := make([]arrow.Field, len(names))
	cols := make([]arrow.Column, len(names))
	for i := range names {
		fields[i] = arrow.Field{Name: names[i], Type: arrs[i].DataType(), Nullable: true}
		cols[i] = arrow.NewColumnFromArr(fields[i], arrs[i])
	}

	tbl := array.NewTable(arrow.NewSchema(fields, nil), cols, int64(arrs[0].Len()))
	for i := range cols {
		cols[i].Release()
	}
	return tbl
}

// convert runs a converter and requires an accepted conversion.
func convert(t *testing.T, c cast.Converter, arr arrow.Array) *cast.Conversion {
	t.Helper()
	conv, err := c.Convert(arr)
	require.NoError(t, err)
	require.NotNil(t, conv, "converter unexpectedly declined")
	return conv
}

// declined runs a converter and requires the not-applicable outcome.
func declined(t *testing.T, c cast.Converter, arr arrow.Array) {
	t.Helper()
	conv, err := c.Convert(arr)
	require.NoError(t, err)
	require.Nil(t, conv, "converter unexpectedly accepted")
}

// semantic returns the field metadata value recorded for a column name.
func semantic(t *testing.T, tbl arrow.Table, name string) (string, bool) {
	t.Helper()
	for _, f := range tbl.Schema().Fields() {
		if f.Name == name {
			if i := f.Metadata.FindKey(cast.MetaSemantic); i >= 0 {
				return f.Metadata.Values()[i], true
			}
			return "", false
		}
	}
	t.Fatalf("no column %q", name)
	return "", false
}
