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

// Command arrowcast reads a CSV file, infers the most specific physical type
// for each column, and prints the resulting schema with its semantic
// annotations. The cast table can optionally be exported.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/magpierre/arrowcast/cast"
	"github.com/magpierre/arrowcast/config"
	"github.com/magpierre/arrowcast/export"
	"github.com/magpierre/arrowcast/reader"
)

func main() {
	var (
		sep        = flag.String("sep", ",", "field separator")
		nulls      = flag.String("null", "", "comma-separated null markers (default: empty, NA, N/A, null, NULL)")
		skip       = flag.Int("skip", 0, "number of leading rows to skip before the header")
		noHeader   = flag.Bool("no-header", false, "input has no header row; columns are named f0, f1, ...")
		configPath = flag.String("config", "", "YAML pipeline config; defaults to the built-in cascade")
		columns    = flag.String("columns", "", "comma-separated column names to cast; all others pass through")
		out        = flag.String("out", "", "output file (requires -format)")
		format     = flag.String("format", "parquet", "output format: parquet, csv or json")
		workers    = flag.Int("workers", 1, "concurrent column casts")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: arrowcast [flags] <file.csv>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := runOptions{
		sep:        *sep,
		nulls:      *nulls,
		skip:       *skip,
		header:     !*noHeader,
		configPath: *configPath,
		columns:    *columns,
		out:        *out,
		format:     *format,
		workers:    *workers,
	}
	if err := run(flag.Arg(0), opts, logger); err != nil {
		logger.Fatal("arrowcast failed", zap.Error(err))
	}
}

type runOptions struct {
	sep        string
	nulls      string
	skip       int
	header     bool
	configPath string
	columns    string
	out        string
	format     string
	workers    int
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

func run(path string, o runOptions, logger *zap.Logger) error {
	opt := reader.DefaultOptions()
	opt.Header = o.header
	opt.SkipRows = o.skip
	if o.sep != "" {
		opt.Comma = []rune(o.sep)[0]
	}
	if o.nulls != "" {
		opt.NullValues = append([]string{""}, strings.Split(o.nulls, ",")...)
	}

	tbl, err := reader.ReadFile(path, opt)
	if err != nil {
		return err
	}
	defer tbl.Release()

	strategy := &cast.Autocast{Samples: 100, Workers: o.workers, Logger: logger}
	if o.configPath != "" {
		pipeline, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		convs, err := pipeline.Build(cast.DefaultRegistry())
		if err != nil {
			return err
		}
		strategy.Converters = convs
	}
	if o.columns != "" {
		// Named columns keep the candidate list; every other column gets an
		// empty one and passes through.
		base := strategy.Converters
		if base == nil {
			base = cast.DefaultConverters()
		}
		strategy.Columns = make(map[string][]cast.Converter)
		for _, name := range strings.Split(o.columns, ",") {
			strategy.Columns[strings.TrimSpace(name)] = base
		}
		strategy.Converters = []cast.Converter{}
	}

	result, err := strategy.CastTable(tbl)
	if err != nil {
		return err
	}
	defer result.Release()

	printSchema(result)

	if o.out == "" {
		return nil
	}
	switch o.format {
	case "parquet":
		return export.ToParquet(result, o.out)
	case "csv":
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		return export.ToCSV(result, f)
	case "json":
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		return export.ToJSON(result, f)
	default:
		return fmt.Errorf("unknown output format %q", o.format)
	}
}

// printSchema lists each column with its physical type and, where a
// conversion happened, its semantic annotation.
func printSchema(tbl arrow.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "column\ttype\tsemantic")
	for _, f := range tbl.Schema().Fields() {
		semantic := ""
		if i := f.Metadata.FindKey(cast.MetaSemantic); i >= 0 {
			semantic = f.Metadata.Values()[i]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Type, semantic)
	}
	w.Flush()
}
