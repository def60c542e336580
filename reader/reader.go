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

// Package reader ingests CSV data into all-string arrow tables, the input
// shape the casting engine operates on. Every option is explicit: the reader
// performs no dialect, encoding or preamble detection of any kind.
package reader

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Options configure CSV ingestion. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// Comma is the field delimiter.
	Comma rune

	// Header indicates the first (non-skipped) row holds column names.
	// Without a header, columns are named f0, f1, ...
	Header bool

	// NullValues are the strings read as null. An empty slice means only
	// empty fields are null.
	NullValues []string

	// SkipRows drops this many leading rows before the header. It is an
	// explicit count, never inferred, and counts physical newline-terminated
	// lines: a preamble row containing a quoted embedded newline counts as
	// two.
	SkipRows int

	// ChunkSize is the record batch size; values below 1 select a default.
	ChunkSize int

	Allocator memory.Allocator
}

// DefaultOptions reads comma-separated data with a header row, treating
// empty fields and the usual NA markers as null.
func DefaultOptions() Options {
	return Options{
		Comma:      ',',
		Header:     true,
		NullValues: []string{"", "NA", "N/A", "null", "NULL"},
		ChunkSize:  1024,
	}
}

// ReadFile reads a CSV file into an all-string table.
func ReadFile(path string, opt Options) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadTable(f, opt)
}

// ReadTable reads CSV data into a table whose columns are all nullable
// strings, same length across columns, ready for casting.
func ReadTable(r io.Reader, opt Options) (arrow.Table, error) {
	if opt.Comma == 0 {
		opt.Comma = ','
	}
	if opt.ChunkSize < 1 {
		opt.ChunkSize = 1024
	}
	mem := opt.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = data[skipOffset(data, opt.SkipRows):]

	names, err := columnNames(data, opt)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	cr := csv.NewReader(bytes.NewReader(data), schema,
		csv.WithComma(opt.Comma),
		csv.WithHeader(opt.Header),
		csv.WithNullReader(true, opt.NullValues...),
		csv.WithChunk(opt.ChunkSize),
		csv.WithAllocator(mem),
	)
	defer cr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	for cr.Next() {
		rec := cr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := cr.Err(); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(recs) == 0 {
		// Keep the all-columns/zero-rows shape instead of failing.
		return emptyTable(schema, mem), nil
	}
	return array.NewTableFromRecords(schema, recs), nil
}

func emptyTable(schema *arrow.Schema, mem memory.Allocator) arrow.Table {
	cols := make([]arrow.Column, schema.NumFields())
	for i, f := range schema.Fields() {
		b := array.NewStringBuilder(mem)
		arr := b.NewStringArray()
		b.Release()
		cols[i] = arrow.NewColumnFromArr(f, arr)
		arr.Release()
	}
	tbl := array.NewTable(schema, cols, 0)
	for i := range cols {
		cols[i].Release()
	}
	return tbl
}

// columnNames scans only the first row to size the schema: names when a
// header is present, generated f0..fN otherwise.
func columnNames(data []byte, opt Options) ([]string, error) {
	cr := stdcsv.NewReader(bytes.NewReader(data))
	cr.Comma = opt.Comma
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	names := make([]string, len(first))
	for i := range first {
		if opt.Header {
			names[i] = strings.TrimSpace(first[i])
		} else {
			names[i] = fmt.Sprintf("f%d", i)
		}
	}
	return names, nil
}

// skipOffset returns the byte offset just past n newline-terminated rows.
func skipOffset(data []byte, n int) int {
	off := 0
	for ; n > 0; n-- {
		i := bytes.IndexByte(data[off:], '\n')
		if i < 0 {
			return len(data)
		}
		off += i + 1
	}
	return off
}
