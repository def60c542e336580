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
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Number parses string columns into integers or floats and selects the
// smallest fixed-width type that represents every parsed value exactly.
//
// A column is integer when every parseable value is in pure decimal digit
// form; a single fractional or exponential value makes the whole column
// float64. Integer range membership is decided with exact 64-bit parsing:
// a digit string whose magnitude exceeds the uint64 range is never
// approximated by a float, it disqualifies the numeric cast entirely so a
// later converter can keep the original digits verbatim.
type Number struct {
	// Threshold is the minimum fraction of non-null values that must parse
	// as numbers for the conversion to be accepted.
	Threshold float64 `yaml:"threshold"`

	// AllowUnsigned permits columns whose values exceed the int64 range to
	// fall back to uint64 instead of failing.
	AllowUnsigned bool `yaml:"allow_unsigned"`
}

// NewNumber returns a Number converter with no tolerance for unparseable
// values and the uint64 fallback enabled.
func NewNumber() *Number {
	return &Number{Threshold: 1.0, AllowUnsigned: true}
}

type numKind uint8

const (
	numNull numKind = iota
	numInvalid
	numInt   // fits int64
	numBig   // fits uint64 only
	numFloat // fractional or exponential form
	numHuge  // digit form exceeding uint64
)

type parsedNum struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func classifyNumber(v string) parsedNum {
	v = strings.TrimSpace(v)

	if reInt.MatchString(v) {
		s := strings.TrimPrefix(v, "+")
		if strings.HasPrefix(s, "-") {
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				f, _ := strconv.ParseFloat(s, 64)
				return parsedNum{kind: numHuge, f: f}
			}
			return parsedNum{kind: numInt, i: i, f: float64(i)}
		}
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			f, _ := strconv.ParseFloat(s, 64)
			return parsedNum{kind: numHuge, f: f}
		}
		if u <= math.MaxInt64 {
			return parsedNum{kind: numInt, i: int64(u), u: u, f: float64(u)}
		}
		return parsedNum{kind: numBig, u: u, f: float64(u)}
	}

	if reFloat.MatchString(v) {
		f, err := strconv.ParseFloat(strings.TrimPrefix(v, "+"), 64)
		if err != nil {
			return parsedNum{kind: numInvalid}
		}
		return parsedNum{kind: numFloat, f: f}
	}

	return parsedNum{kind: numInvalid}
}

func (n *Number) Convert(arr arrow.Array) (*Conversion, error) {
	if err := checkThreshold(n.Threshold); err != nil {
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

	vals := make([]parsedNum, s.Len())
	var ints, bigs, floats, huges int
	var hasNeg bool
	minI, maxI := int64(math.MaxInt64), int64(math.MinInt64)
	var maxU uint64

	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		p := classifyNumber(s.Value(i))
		vals[i] = p

		switch p.kind {
		case numInt:
			ints++
			if p.i < 0 {
				hasNeg = true
			}
			if p.i < minI {
				minI = p.i
			}
			if p.i > maxI {
				maxI = p.i
			}
			if p.i >= 0 && p.u > maxU {
				maxU = p.u
			}
		case numBig:
			bigs++
			if p.u > maxU {
				maxU = p.u
			}
		case numFloat:
			floats++
		case numHuge:
			huges++
		}
	}

	if floats > 0 {
		// Any fractional/exponential value makes the whole column float64.
		// Integer-formed values are widened, including those beyond uint64.
		// Huge digit strings still parse here, as approximate floats.
		valid := ints + bigs + floats + huges
		if proportion(valid, nonNull) < n.Threshold {
			return nil, nil
		}
		result := buildFloats(vals)
		return &Conversion{
			Result: result,
			Meta:   map[string]string{MetaSemantic: "number[Float64]"},
		}, nil
	}

	// Integer column: never approximate digits that exceed the widest
	// supported integer with a binary float.
	if huges > 0 {
		return nil, nil
	}
	if proportion(ints+bigs, nonNull) < n.Threshold {
		return nil, nil
	}

	var dt arrow.DataType
	switch {
	case hasNeg && bigs > 0:
		// Negatives mixed with magnitudes beyond int64: no integer type
		// covers the range.
		return nil, nil
	case hasNeg:
		dt = smallestSignedType(minI, maxI)
	case bigs > 0 && !n.AllowUnsigned:
		return nil, nil
	default:
		dt = smallestUnsignedType(maxU)
	}

	result, err := buildInts(vals, dt)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		Result: result,
		Meta:   map[string]string{MetaSemantic: "number[" + physName(dt) + "]"},
	}, nil
}

func smallestSignedType(vmin, vmax int64) arrow.DataType {
	switch {
	case vmin >= math.MinInt8 && vmax <= math.MaxInt8:
		return arrow.PrimitiveTypes.Int8
	case vmin >= math.MinInt16 && vmax <= math.MaxInt16:
		return arrow.PrimitiveTypes.Int16
	case vmin >= math.MinInt32 && vmax <= math.MaxInt32:
		return arrow.PrimitiveTypes.Int32
	default:
		return arrow.PrimitiveTypes.Int64
	}
}

func smallestUnsignedType(vmax uint64) arrow.DataType {
	switch {
	case vmax <= math.MaxUint8:
		return arrow.PrimitiveTypes.Uint8
	case vmax <= math.MaxUint16:
		return arrow.PrimitiveTypes.Uint16
	case vmax <= math.MaxUint32:
		return arrow.PrimitiveTypes.Uint32
	default:
		return arrow.PrimitiveTypes.Uint64
	}
}

// physName renders a data type the way semantic metadata spells physical
// widths: Int8..Int64, UInt8..UInt64, Float64.
func physName(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.INT8:
		return "Int8"
	case arrow.INT16:
		return "Int16"
	case arrow.INT32:
		return "Int32"
	case arrow.INT64:
		return "Int64"
	case arrow.UINT8:
		return "UInt8"
	case arrow.UINT16:
		return "UInt16"
	case arrow.UINT32:
		return "UInt32"
	case arrow.UINT64:
		return "UInt64"
	case arrow.FLOAT64:
		return "Float64"
	default:
		return dt.Name()
	}
}

func buildFloats(vals []parsedNum) arrow.Array {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()

	for _, p := range vals {
		switch p.kind {
		case numInt, numBig, numFloat, numHuge:
			b.Append(p.f)
		default:
			b.AppendNull()
		}
	}
	return b.NewArray()
}

func buildInts(vals []parsedNum, dt arrow.DataType) (arrow.Array, error) {
	mem := memory.DefaultAllocator

	switch dt.ID() {
	case arrow.INT8:
		b := array.NewInt8Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt {
				b.Append(int8(p.i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case arrow.INT16:
		b := array.NewInt16Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt {
				b.Append(int16(p.i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case arrow.INT32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt {
				b.Append(int32(p.i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case arrow.INT64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt {
				b.Append(p.i)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case arrow.UINT8:
		b := array.NewUint8Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt {
				b.Append(uint8(p.u))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case arrow.UINT16:
		b := array.NewUint16Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt {
				b.Append(uint16(p.u))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case arrow.UINT32:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt {
				b.Append(uint32(p.u))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case arrow.UINT64:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		for _, p := range vals {
			if p.kind == numInt || p.kind == numBig {
				b.Append(p.u)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported integer type %s", dt)
	}
}
