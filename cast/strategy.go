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
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Strategy casts whole tables. Both implementations share the table driver:
// column order, column count and row count of the input are always preserved;
// columns no converter claims pass through unchanged with no metadata added.
type Strategy interface {
	// CastColumn runs the per-column decision on a single (chunk-flattened)
	// column. A nil Conversion means the column passes through.
	CastColumn(name string, arr arrow.Array) (*Conversion, error)

	// CastTable applies the strategy to every column and assembles the
	// output table.
	CastTable(tbl arrow.Table) (arrow.Table, error)
}

// DefaultConverters is the default candidate order: most specific and most
// information-preserving types first, the universal text fallback last.
// Category is bounded to 10% distinct values so free-form text is not
// pointlessly dictionary-encoded.
func DefaultConverters() []Converter {
	return []Converter{
		NewNumber(),
		NewList(),
		NewTimestamp(),
		NewURL(),
		NewBoundedCategory(0.1),
		NewText(),
	}
}

// Autocast tries an ordered candidate list per column and accepts the first
// conversion; declined candidates are skipped silently.
type Autocast struct {
	// Converters is the candidate list shared across all columns. Nil means
	// DefaultConverters.
	Converters []Converter

	// Columns overrides the candidate list for individual columns by name.
	Columns map[string][]Converter

	// Fallback, when set, is applied to string columns the whole cascade
	// declined and to all-null columns. Nil leaves such columns unchanged.
	Fallback Converter

	// Samples caps the pre-probe: candidates are first tried on this many
	// leading non-null values for fast rejection. Zero disables the probe.
	Samples int

	// Workers caps concurrent column casts in CastTable. Values below 2 mean
	// sequential processing.
	Workers int

	Logger *zap.Logger
}

// NewAutocast returns an Autocast over the given candidate list, or the
// default cascade when none is given.
func NewAutocast(convs ...Converter) *Autocast {
	if len(convs) == 0 {
		convs = DefaultConverters()
	}
	return &Autocast{Converters: convs, Samples: 100}
}

func (a *Autocast) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *Autocast) converters(name string) []Converter {
	if override, ok := a.Columns[name]; ok {
		return override
	}
	if a.Converters == nil {
		return DefaultConverters()
	}
	return a.Converters
}

func (a *Autocast) CastColumn(name string, arr arrow.Array) (*Conversion, error) {
	log := a.logger()

	if validCount(arr) == 0 {
		if a.Fallback != nil {
			return a.Fallback.Convert(arr)
		}
		log.Debug("column is all null, skipping", zap.String("column", name))
		return nil, nil
	}

	s := asStrings(arr)
	for _, c := range a.converters(name) {
		if a.Samples > 0 && s != nil && s.Len() > a.Samples {
			sample := sampleValid(s, a.Samples)
			probe, err := c.Convert(sample)
			sample.Release()
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			if probe == nil {
				continue
			}
			probe.Result.Release()
		}

		conv, err := c.Convert(arr)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if conv != nil {
			log.Debug("converted column",
				zap.String("column", name),
				zap.String("semantic", conv.Meta[MetaSemantic]),
				zap.Stringer("type", conv.Result.DataType()))
			return conv, nil
		}
	}

	if a.Fallback != nil && s != nil {
		return a.Fallback.Convert(arr)
	}
	return nil, nil
}

func (a *Autocast) CastTable(tbl arrow.Table) (arrow.Table, error) {
	return castTable(a, tbl, a.Workers, a.logger())
}

// Cast applies one explicitly chosen converter per named column. Columns
// absent from the mapping pass through; a declined conversion leaves the
// column unchanged and is reported, since the caller asked for it by name.
type Cast struct {
	Converters map[string]Converter

	// Workers caps concurrent column casts in CastTable.
	Workers int

	Logger *zap.Logger
}

func NewCast(converters map[string]Converter) *Cast {
	return &Cast{Converters: converters}
}

func (c *Cast) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Cast) CastColumn(name string, arr arrow.Array) (*Conversion, error) {
	conv, ok := c.Converters[name]
	if !ok {
		return nil, nil
	}

	result, err := conv.Convert(arr)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	if result == nil {
		c.logger().Warn("explicit conversion declined, column left unchanged",
			zap.String("column", name),
			zap.Stringer("type", arr.DataType()))
	}
	return result, nil
}

func (c *Cast) CastTable(tbl arrow.Table) (arrow.Table, error) {
	return castTable(c, tbl, c.Workers, c.logger())
}

// castTable runs the per-column decision over every column, sequentially or
// with a bounded worker pool, then gathers the results into a new table in
// the original column order.
func castTable(s Strategy, tbl arrow.Table, workers int, log *zap.Logger) (arrow.Table, error) {
	mem := memory.DefaultAllocator
	schema := tbl.Schema()
	ncols := int(tbl.NumCols())
	convs := make([]*Conversion, ncols)

	releaseAll := func() {
		for _, conv := range convs {
			if conv != nil {
				conv.Result.Release()
			}
		}
	}

	castOne := func(i int) error {
		col := tbl.Column(i)
		arr, err := flattenChunks(col.Data(), mem)
		if err != nil {
			return fmt.Errorf("column %q: %w", col.Name(), err)
		}
		defer arr.Release()

		conv, err := s.CastColumn(col.Name(), arr)
		if err != nil {
			return err
		}
		convs[i] = conv
		return nil
	}

	if workers > 1 {
		// Columns are independent units of work; no coordination is needed
		// beyond gathering all results.
		var g errgroup.Group
		g.SetLimit(workers)
		for i := 0; i < ncols; i++ {
			g.Go(func() error { return castOne(i) })
		}
		if err := g.Wait(); err != nil {
			releaseAll()
			return nil, err
		}
	} else {
		for i := 0; i < ncols; i++ {
			if err := castOne(i); err != nil {
				releaseAll()
				return nil, err
			}
		}
	}

	fields := make([]arrow.Field, ncols)
	cols := make([]arrow.Column, ncols)
	var created []int

	for i := 0; i < ncols; i++ {
		f := schema.Field(i)
		if convs[i] == nil {
			fields[i] = f
			cols[i] = *tbl.Column(i)
			continue
		}

		conv := convs[i]
		fields[i] = arrow.Field{
			Name:     f.Name,
			Type:     conv.Result.DataType(),
			Nullable: true,
			Metadata: mergeMetadata(f.Metadata, conv.Meta),
		}
		cols[i] = arrow.NewColumnFromArr(fields[i], conv.Result)
		created = append(created, i)

		log.Info("changed column type",
			zap.String("column", f.Name),
			zap.Stringer("from", f.Type),
			zap.Stringer("to", conv.Result.DataType()),
			zap.String("semantic", conv.Meta[MetaSemantic]))
	}

	md := schema.Metadata()
	out := array.NewTable(arrow.NewSchema(fields, &md), cols, tbl.NumRows())

	for _, i := range created {
		cols[i].Release()
	}
	releaseAll()
	return out, nil
}

// mergeMetadata overlays conversion metadata onto pre-existing field
// metadata, replacing keys on collision. Added keys are applied in sorted
// order so output schemas are deterministic.
func mergeMetadata(md arrow.Metadata, add map[string]string) arrow.Metadata {
	keys := append([]string{}, md.Keys()...)
	values := append([]string{}, md.Values()...)

	addKeys := make([]string, 0, len(add))
	for k := range add {
		addKeys = append(addKeys, k)
	}
	sort.Strings(addKeys)

	for _, k := range addKeys {
		replaced := false
		for i, existing := range keys {
			if existing == k {
				values[i] = add[k]
				replaced = true
				break
			}
		}
		if !replaced {
			keys = append(keys, k)
			values = append(values, add[k])
		}
	}
	return arrow.NewMetadata(keys, values)
}

var _ Strategy = (*Autocast)(nil)
var _ Strategy = (*Cast)(nil)
