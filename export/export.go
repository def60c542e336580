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

// Package export writes cast tables to consumer representations. Parquet
// preserves the physical types (including dictionary encoding) and the
// schema metadata carrying semantic annotations; CSV and JSON render values
// back to text.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ToParquet writes the table to a snappy-compressed Parquet file with the
// arrow schema (and its semantic metadata) stored alongside.
func ToParquet(tbl arrow.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	w, err := pqarrow.NewFileWriter(tbl.Schema(), f, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}

	if err := w.WriteTable(tbl, tbl.NumRows()); err != nil {
		w.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	// The footer is written on Close; a failed flush must not report success.
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// ToCSV renders the table back to delimited text, nulls as empty fields.
func ToCSV(tbl arrow.Table, out io.Writer) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	schema := tbl.Schema()
	header := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		header[i] = f.Name
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		for row := int64(0); row < rec.NumRows(); row++ {
			fields := make([]string, rec.NumCols())
			for col, arr := range rec.Columns() {
				fields[col] = FormatValue(arr, int(row))
			}
			if err := w.Write(fields); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("read table: %w", err)
	}
	return nil
}

// ToJSON renders the table as an array of row objects, preserving value
// types where JSON can.
func ToJSON(tbl arrow.Table, out io.Writer) error {
	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()

	schema := tbl.Schema()
	rows := make([]map[string]any, 0, tbl.NumRows())

	for tr.Next() {
		rec := tr.Record()
		for row := int64(0); row < rec.NumRows(); row++ {
			obj := make(map[string]any, rec.NumCols())
			for col, arr := range rec.Columns() {
				obj[schema.Field(col).Name] = jsonValue(arr, int(row))
			}
			rows = append(rows, obj)
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("read table: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// FormatValue renders one array position as text. Dictionary-encoded
// columns resolve through their dictionary; lists render bracketed.
func FormatValue(arr arrow.Array, pos int) string {
	if arr.IsNull(pos) {
		return ""
	}

	switch arr.DataType().ID() {
	case arrow.STRING:
		return arr.(*array.String).Value(pos)

	case arrow.DICTIONARY:
		return dictValue(arr.(*array.Dictionary), pos)

	case arrow.BOOL:
		return strconv.FormatBool(arr.(*array.Boolean).Value(pos))

	case arrow.INT8:
		return strconv.FormatInt(int64(arr.(*array.Int8).Value(pos)), 10)
	case arrow.INT16:
		return strconv.FormatInt(int64(arr.(*array.Int16).Value(pos)), 10)
	case arrow.INT32:
		return strconv.FormatInt(int64(arr.(*array.Int32).Value(pos)), 10)
	case arrow.INT64:
		return strconv.FormatInt(arr.(*array.Int64).Value(pos), 10)
	case arrow.UINT8:
		return strconv.FormatUint(uint64(arr.(*array.Uint8).Value(pos)), 10)
	case arrow.UINT16:
		return strconv.FormatUint(uint64(arr.(*array.Uint16).Value(pos)), 10)
	case arrow.UINT32:
		return strconv.FormatUint(uint64(arr.(*array.Uint32).Value(pos)), 10)
	case arrow.UINT64:
		return strconv.FormatUint(arr.(*array.Uint64).Value(pos), 10)

	case arrow.FLOAT64:
		return strconv.FormatFloat(arr.(*array.Float64).Value(pos), 'g', -1, 64)

	case arrow.TIMESTAMP:
		ts := arr.(*array.Timestamp)
		unit := ts.DataType().(*arrow.TimestampType).Unit
		return ts.Value(pos).ToTime(unit).Format("2006-01-02 15:04:05.999999999")

	case arrow.LIST:
		return formatList(arr.(*array.List), pos)

	default:
		return fmt.Sprintf("%v", array.NewSlice(arr, int64(pos), int64(pos+1)))
	}
}

func formatList(l *array.List, pos int) string {
	start, end := l.ValueOffsets(pos)
	values := l.ListValues()

	out := "["
	for i := start; i < end; i++ {
		if i > start {
			out += ", "
		}
		out += FormatValue(values, int(i))
	}
	return out + "]"
}

func dictValue(d *array.Dictionary, pos int) string {
	return d.Dictionary().(*array.String).Value(d.GetValueIndex(pos))
}

func jsonValue(arr arrow.Array, pos int) any {
	if arr.IsNull(pos) {
		return nil
	}

	switch arr.DataType().ID() {
	case arrow.STRING:
		return arr.(*array.String).Value(pos)
	case arrow.DICTIONARY:
		return dictValue(arr.(*array.Dictionary), pos)
	case arrow.BOOL:
		return arr.(*array.Boolean).Value(pos)
	case arrow.INT8:
		return arr.(*array.Int8).Value(pos)
	case arrow.INT16:
		return arr.(*array.Int16).Value(pos)
	case arrow.INT32:
		return arr.(*array.Int32).Value(pos)
	case arrow.INT64:
		return arr.(*array.Int64).Value(pos)
	case arrow.UINT8:
		return arr.(*array.Uint8).Value(pos)
	case arrow.UINT16:
		return arr.(*array.Uint16).Value(pos)
	case arrow.UINT32:
		return arr.(*array.Uint32).Value(pos)
	case arrow.UINT64:
		return arr.(*array.Uint64).Value(pos)
	case arrow.FLOAT64:
		return arr.(*array.Float64).Value(pos)
	case arrow.TIMESTAMP:
		ts := arr.(*array.Timestamp)
		unit := ts.DataType().(*arrow.TimestampType).Unit
		return ts.Value(pos).ToTime(unit).Format("2006-01-02T15:04:05.999999999Z")
	case arrow.LIST:
		l := arr.(*array.List)
		start, end := l.ValueOffsets(pos)
		values := l.ListValues()
		out := make([]any, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, jsonValue(values, int(i)))
		}
		return out
	default:
		return FormatValue(arr, pos)
	}
}
