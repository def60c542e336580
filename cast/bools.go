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
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Boolean converts stringy booleans ("true"/"False", "t"/"f", "1"/"0",
// "yes"/"no") to the boolean type. Not part of the default cascade; numeric
// 0/1 columns belong to Number unless Boolean is explicitly configured ahead
// of it.
type Boolean struct {
	Threshold float64 `yaml:"threshold"`
}

func NewBoolean() *Boolean {
	return &Boolean{Threshold: 1.0}
}

func parseBool(v string) (val, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "t", "1", "yes":
		return true, true
	case "false", "f", "0", "no":
		return false, true
	}
	return false, false
}

func (bc *Boolean) Convert(arr arrow.Array) (*Conversion, error) {
	if err := checkThreshold(bc.Threshold); err != nil {
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

	vals := make([]bool, s.Len())
	ok := make([]bool, s.Len())
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		if v, valid := parseBool(s.Value(i)); valid {
			vals[i], ok[i] = v, true
			n++
		}
	}
	if proportion(n, nonNull) < bc.Threshold {
		return nil, nil
	}

	b := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer b.Release()
	for i := range vals {
		if ok[i] {
			b.Append(vals[i])
		} else {
			b.AppendNull()
		}
	}
	return &Conversion{
		Result: b.NewArray(),
		Meta:   map[string]string{MetaSemantic: "boolean"},
	}, nil
}

var _ Converter = (*Boolean)(nil)
