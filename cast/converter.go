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

// Package cast infers the most specific physical type that can losslessly
// represent a column of raw strings, and performs the cast. Columns are Arrow
// arrays; the output of a cast is a new Arrow array of the inferred type plus
// descriptive metadata (minimally the semantic type name).
package cast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// MetaSemantic is the metadata key naming the inferred semantic type of a
// converted column, e.g. "number[UInt64]", "category", "list[number]".
const MetaSemantic = "semantic"

// ErrConfig marks invalid converter or strategy configuration. It is surfaced
// on first use and is never swallowed as a declined conversion.
var ErrConfig = errors.New("invalid configuration")

// Conversion is the result of a successful cast of a single column.
type Conversion struct {
	// Result replaces the input column in the output table. It has the same
	// length as the input; values that failed to parse are null.
	Result arrow.Array

	// Meta is descriptive key/value data recorded as field metadata on the
	// output schema. Always contains MetaSemantic.
	Meta map[string]string
}

// Converter decides whether a semantic type applies to a column of strings
// and, if so, produces the typed column.
//
// Convert returns (nil, nil) when the converter declines the column, either
// because the type is structurally inapplicable or because the fraction of
// parseable non-null values is below the converter's threshold. Declining is
// ordinary control flow, not an error. A non-nil error is reserved for
// invalid configuration and genuine internal failures.
//
// Converters are pure configuration objects: they hold no per-call state,
// never mutate their input, and may be reused across any number of columns
// and tables, concurrently.
type Converter interface {
	Convert(arr arrow.Array) (*Conversion, error)
}

// Factory produces a converter with default configuration.
type Factory func() Converter

// Registry maps converter names to factories. Registration is an explicit
// call; nothing registers itself as a side effect of being imported.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates a (case-insensitive) name with a converter factory,
// replacing any previous association.
func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	f, ok := r.factories[strings.ToLower(name)]
	return f, ok
}

// New builds a converter with default configuration by registered name.
func (r *Registry) New(name string) (Converter, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown converter %q", ErrConfig, name)
	}
	return f(), nil
}

// DefaultRegistry returns a registry holding every built-in converter.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("number", func() Converter { return NewNumber() })
	r.Register("boolean", func() Converter { return NewBoolean() })
	r.Register("list", func() Converter { return NewList() })
	r.Register("timestamp", func() Converter { return NewTimestamp() })
	r.Register("url", func() Converter { return NewURL() })
	r.Register("category", func() Converter { return NewCategory() })
	r.Register("text", func() Converter { return NewText() })
	return r
}

func checkThreshold(t float64) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1], got %v", ErrConfig, t)
	}
	return nil
}
