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

package cast

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// dictType is the dictionary encoding used for category-like columns:
// int32 indices into a deduplicated table of distinct strings.
var dictType = &arrow.DictionaryType{
	IndexType: arrow.PrimitiveTypes.Int32,
	ValueType: arrow.BinaryTypes.String,
}

// asStrings returns the input as a string array, or nil if the column does
// not hold strings. Converters decline non-string columns through this.
func asStrings(arr arrow.Array) *array.String {
	s, ok := arr.(*array.String)
	if !ok {
		return nil
	}
	return s
}

func validCount(arr arrow.Array) int {
	return arr.Len() - arr.NullN()
}

// proportion is valid/total, with an empty denominator counting as zero.
func proportion(valid, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(valid) / float64(total)
}

// dictEncode builds a dictionary-encoded copy of s. Positions where keep
// returns false become null; a nil keep keeps every valid value.
func dictEncode(s *array.String, keep func(i int) bool) (arrow.Array, error) {
	b := array.NewDictionaryBuilder(memory.DefaultAllocator, dictType)
	defer b.Release()
	sb := b.(*array.BinaryDictionaryBuilder)

	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) || (keep != nil && !keep(i)) {
			sb.AppendNull()
			continue
		}
		if err := sb.AppendString(s.Value(i)); err != nil {
			return nil, fmt.Errorf("dictionary encode: %w", err)
		}
	}
	return sb.NewArray(), nil
}

// flattenChunks concatenates a (possibly multi-chunk) column into a single
// array. The caller owns the returned reference.
func flattenChunks(chunked *arrow.Chunked, mem memory.Allocator) (arrow.Array, error) {
	chunks := chunked.Chunks()
	if len(chunks) == 1 {
		chunks[0].Retain()
		return chunks[0], nil
	}
	return array.Concatenate(chunks, mem)
}

// sampleValid copies up to n non-null leading values of s into a compact
// string array used by the autocast pre-probe.
func sampleValid(s *array.String, n int) *array.String {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()

	for i := 0; i < s.Len() && b.Len() < n; i++ {
		if s.IsValid(i) {
			b.Append(s.Value(i))
		}
	}
	return b.NewStringArray()
}
