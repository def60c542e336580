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
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// List parses text renderings of delimited collections, e.g. "[a,b,c]",
// "['e', 'f']" or "[1.3, 1.4]", tolerating mixed quoting styles and any
// bracket-like enclosing characters.
//
// A single element type is elected for the whole column by running the
// element converter (Number by default) over the flattened elements of all
// rows: all-numeric elements produce a numeric list, a timestamp election
// produces a timestamp list, anything else falls back to a list of
// dictionary-encoded strings, annotated as URL lists when every element is
// URL-shaped.
type List struct {
	// Threshold is the minimum fraction of non-null values that must parse
	// as well-formed bracketed sequences.
	Threshold float64 `yaml:"threshold"`

	// Delimiter separates elements inside the brackets. Defaults to ",".
	Delimiter string `yaml:"delimiter"`

	// Element elects the physical element type from the flattened elements.
	// Defaults to Number with no tolerance. Integer, float64 and timestamp
	// elections are honored; anything else keeps elements as
	// dictionary-encoded strings.
	Element Converter `yaml:"-"`
}

// NewList returns a List converter with comma-delimited elements and numeric
// element election.
func NewList() *List {
	return &List{Threshold: 1.0, Delimiter: ","}
}

func (l *List) delimiter() (rune, error) {
	if l.Delimiter == "" {
		return ',', nil
	}
	r := []rune(l.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("%w: list delimiter must be a single character, got %q", ErrConfig, l.Delimiter)
	}
	return r[0], nil
}

// parseListValue splits one bracketed value into element strings. The second
// return is false for anything that is not a well-formed bracketed sequence;
// an empty bracket pair yields a zero-length, valid sequence.
func parseListValue(v string, delim rune) ([]string, bool) {
	t := strings.TrimSpace(v)
	if !reListLike.MatchString(t) {
		return nil, false
	}

	inner := strings.TrimSpace(t[1 : len(t)-1])
	if inner == "" {
		return []string{}, true
	}

	r := csv.NewReader(strings.NewReader(inner))
	r.Comma = delim
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		return nil, false
	}

	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = trimElementQuotes(strings.TrimSpace(f))
	}
	return out, true
}

// trimElementQuotes removes one matching pair of single or double quotes.
// Double-quoted fields are already unwrapped by the csv split; this catches
// single-quoted elements and stray symmetric quoting.
func trimElementQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func (l *List) Convert(arr arrow.Array) (*Conversion, error) {
	if err := checkThreshold(l.Threshold); err != nil {
		return nil, err
	}
	delim, err := l.delimiter()
	if err != nil {
		return nil, err
	}

	s := asStrings(arr)
	if s == nil {
		return nil, nil
	}
	nonNull := validCount(arr)
	if nonNull == 0 {
		return nil, nil
	}

	rows := make([][]string, s.Len())
	valid := make([]bool, s.Len())
	nValid := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		elems, ok := parseListValue(s.Value(i), delim)
		if ok {
			rows[i] = elems
			valid[i] = true
			nValid++
		}
	}
	if proportion(nValid, nonNull) < l.Threshold {
		return nil, nil
	}

	flat := flattenElements(rows, valid)
	defer flat.Release()

	elem := l.Element
	if elem == nil {
		elem = NewNumber()
	}
	elemConv, err := elem.Convert(flat)
	if err != nil {
		return nil, fmt.Errorf("list element election: %w", err)
	}

	if elemConv != nil {
		defer elemConv.Result.Release()
		dt := elemConv.Result.DataType()
		switch dt.ID() {
		case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
			arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64, arrow.FLOAT64:
			result, err := buildNumericLists(rows, valid, dt)
			if err != nil {
				return nil, err
			}
			return &Conversion{
				Result: result,
				Meta:   map[string]string{MetaSemantic: "list[number]"},
			}, nil
		case arrow.TIMESTAMP:
			result, err := buildTimestampLists(rows, valid,
				dt.(*arrow.TimestampType), elemConv.Meta["format"])
			if err != nil {
				return nil, err
			}
			return &Conversion{
				Result: result,
				Meta: map[string]string{
					MetaSemantic: "list[date]",
					"format":     elemConv.Meta["format"],
				},
			}, nil
		}
		// Other elections (dictionary, boolean, plain string) keep the
		// elements as dictionary-encoded strings below.
	}

	semantic := "list[category]"
	urlConv, err := NewURL().Convert(flat)
	if err != nil {
		return nil, err
	}
	if urlConv != nil {
		urlConv.Result.Release()
		semantic = "list[url]"
	}

	result, err := buildCategoryLists(rows, valid)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		Result: result,
		Meta:   map[string]string{MetaSemantic: semantic},
	}, nil
}

// flattenElements gathers the elements of all valid rows into one string
// array; the element converter elects a single element type over it.
func flattenElements(rows [][]string, valid []bool) *array.String {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	for i, row := range rows {
		if !valid[i] {
			continue
		}
		for _, e := range row {
			b.Append(e)
		}
	}
	return b.NewStringArray()
}

func buildNumericLists(rows [][]string, valid []bool, dt arrow.DataType) (arrow.Array, error) {
	lb := array.NewListBuilder(memory.DefaultAllocator, dt)
	defer lb.Release()

	for i, row := range rows {
		if !valid[i] {
			lb.AppendNull()
			continue
		}
		lb.Append(true)
		for _, e := range row {
			if err := appendNumeric(lb.ValueBuilder(), dt, e); err != nil {
				return nil, err
			}
		}
	}
	return lb.NewArray(), nil
}

// appendNumeric parses one element into the elected width. Elements that do
// not fit become null: the election can tolerate unparseable elements when
// its threshold allows, and huge digit strings widen to approximate floats
// exactly as they did during the election.
func appendNumeric(b array.Builder, dt arrow.DataType, s string) error {
	p := classifyNumber(s)

	switch tb := b.(type) {
	case *array.Float64Builder:
		if p.kind == numInvalid {
			tb.AppendNull()
			return nil
		}
		tb.Append(p.f)
	case *array.Int8Builder:
		if p.kind != numInt {
			tb.AppendNull()
			return nil
		}
		tb.Append(int8(p.i))
	case *array.Int16Builder:
		if p.kind != numInt {
			tb.AppendNull()
			return nil
		}
		tb.Append(int16(p.i))
	case *array.Int32Builder:
		if p.kind != numInt {
			tb.AppendNull()
			return nil
		}
		tb.Append(int32(p.i))
	case *array.Int64Builder:
		if p.kind != numInt {
			tb.AppendNull()
			return nil
		}
		tb.Append(p.i)
	case *array.Uint8Builder:
		if p.kind != numInt {
			tb.AppendNull()
			return nil
		}
		tb.Append(uint8(p.u))
	case *array.Uint16Builder:
		if p.kind != numInt {
			tb.AppendNull()
			return nil
		}
		tb.Append(uint16(p.u))
	case *array.Uint32Builder:
		if p.kind != numInt {
			tb.AppendNull()
			return nil
		}
		tb.Append(uint32(p.u))
	case *array.Uint64Builder:
		if p.kind != numInt && p.kind != numBig {
			tb.AppendNull()
			return nil
		}
		tb.Append(p.u)
	default:
		return fmt.Errorf("unsupported list element builder %T", b)
	}
	return nil
}

// buildTimestampLists re-parses each element with the layout the election
// chose; elements that fail it become null.
func buildTimestampLists(rows [][]string, valid []bool, dt *arrow.TimestampType, layout string) (arrow.Array, error) {
	lb := array.NewListBuilder(memory.DefaultAllocator, dt)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.TimestampBuilder)

	for i, row := range rows {
		if !valid[i] {
			lb.AppendNull()
			continue
		}
		lb.Append(true)
		for _, e := range row {
			tm, err := time.Parse(layout, strings.TrimSpace(e))
			if err != nil {
				vb.AppendNull()
				continue
			}
			ts, err := arrow.TimestampFromTime(tm, dt.Unit)
			if err != nil {
				vb.AppendNull()
				continue
			}
			vb.Append(ts)
		}
	}
	return lb.NewArray(), nil
}

func buildCategoryLists(rows [][]string, valid []bool) (arrow.Array, error) {
	lb := array.NewListBuilder(memory.DefaultAllocator, dictType)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.BinaryDictionaryBuilder)

	for i, row := range rows {
		if !valid[i] {
			lb.AppendNull()
			continue
		}
		lb.Append(true)
		for _, e := range row {
			if err := vb.AppendString(e); err != nil {
				return nil, fmt.Errorf("dictionary encode list element: %w", err)
			}
		}
	}
	return lb.NewArray(), nil
}

var _ Converter = (*List)(nil)
