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
)

// URL recognizes columns of web-URL-like strings and stores them
// dictionary-encoded: URLs repeat heavily and benefit from interning.
type URL struct {
	Threshold float64 `yaml:"threshold"`
}

func NewURL() *URL {
	return &URL{Threshold: 1.0}
}

func (u *URL) Convert(arr arrow.Array) (*Conversion, error) {
	if err := checkThreshold(u.Threshold); err != nil {
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

	matched := make([]bool, s.Len())
	count := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsValid(i) && reURL.MatchString(s.Value(i)) {
			matched[i] = true
			count++
		}
	}
	if proportion(count, nonNull) < u.Threshold {
		return nil, nil
	}

	result, err := dictEncode(s, func(i int) bool { return matched[i] })
	if err != nil {
		return nil, err
	}
	return &Conversion{
		Result: result,
		Meta:   map[string]string{MetaSemantic: "url"},
	}, nil
}

// Category accepts string columns whose distinct-value count is bounded and
// stores them dictionary-encoded. Any string is a valid category, so the
// cardinality bound is the only gate.
type Category struct {
	Threshold float64 `yaml:"threshold"`

	// MaxCardinality bounds the number of distinct non-null values. Values
	// greater than 1 are absolute counts; values in (0, 1] are a fraction of
	// the valid values; nil means unbounded.
	MaxCardinality *float64 `yaml:"max_cardinality"`
}

// NewCategory returns an unbounded Category converter.
func NewCategory() *Category {
	return &Category{Threshold: 1.0}
}

// NewBoundedCategory returns a Category converter with the given cardinality
// bound (see MaxCardinality for its interpretation).
func NewBoundedCategory(maxCardinality float64) *Category {
	return &Category{Threshold: 1.0, MaxCardinality: &maxCardinality}
}

func (c *Category) Convert(arr arrow.Array) (*Conversion, error) {
	if err := checkThreshold(c.Threshold); err != nil {
		return nil, err
	}

	s := asStrings(arr)
	if s == nil {
		return nil, nil
	}

	if c.MaxCardinality != nil {
		maxCard := *c.MaxCardinality
		if maxCard < 0 {
			return nil, fmt.Errorf("%w: max_cardinality must be positive, got %v", ErrConfig, maxCard)
		}

		distinct := make(map[string]struct{})
		for i := 0; i < s.Len(); i++ {
			if s.IsValid(i) {
				distinct[s.Value(i)] = struct{}{}
			}
		}

		nUnique := float64(len(distinct))
		ok := false
		switch {
		case maxCard > 1:
			ok = nUnique <= maxCard
		case maxCard > 0:
			ok = proportion(len(distinct), validCount(arr)) <= maxCard
		}
		if !ok {
			return nil, nil
		}
	}

	result, err := dictEncode(s, nil)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		Result: result,
		Meta:   map[string]string{MetaSemantic: "category"},
	}, nil
}

// Text is the universal fallback: every string column is text. The column is
// kept as plain string data, only the semantic annotation is added.
type Text struct {
	Threshold float64 `yaml:"threshold"`
}

func NewText() *Text {
	return &Text{Threshold: 1.0}
}

func (t *Text) Convert(arr arrow.Array) (*Conversion, error) {
	if err := checkThreshold(t.Threshold); err != nil {
		return nil, err
	}

	s := asStrings(arr)
	if s == nil {
		return nil, nil
	}

	s.Retain()
	return &Conversion{
		Result: s,
		Meta:   map[string]string{MetaSemantic: "text"},
	}, nil
}

var _ Converter = (*URL)(nil)
var _ Converter = (*Category)(nil)
var _ Converter = (*Text)(nil)
var _ Converter = (*Number)(nil)
