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
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DefaultTimeFormats are the layouts tried, in order, when a Timestamp
// converter is built without an explicit format list. Two-digit-year date
// layouts come before four-digit ones: a four-digit layout silently accepts
// two-digit years, the reverse fails.
var DefaultTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"02-01-06",
	"02/01/06",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"Mon 02 Jan 2006",
	"Mon, 02 Jan 2006",
}

// Timestamp parses string columns against an ordered list of layouts. The
// first layout that parses a sufficient fraction of the non-null values is
// used for the whole column; per-row layout guessing is deliberately not
// supported, so ambiguous day/month ordering cannot flip between rows.
type Timestamp struct {
	Threshold float64 `yaml:"threshold"`

	// Formats are Go time layouts tried in order. Defaults to
	// DefaultTimeFormats; an empty slice after construction via struct
	// literal is a configuration error.
	Formats []string `yaml:"formats"`

	// Unit is the storage resolution. Defaults to nanoseconds.
	Unit arrow.TimeUnit `yaml:"-"`
}

func NewTimestamp(formats ...string) *Timestamp {
	if len(formats) == 0 {
		formats = DefaultTimeFormats
	}
	return &Timestamp{Threshold: 1.0, Formats: formats, Unit: arrow.Nanosecond}
}

func (t *Timestamp) Convert(arr arrow.Array) (*Conversion, error) {
	if err := checkThreshold(t.Threshold); err != nil {
		return nil, err
	}
	if len(t.Formats) == 0 {
		return nil, fmt.Errorf("%w: timestamp converter has no formats", ErrConfig)
	}

	s := asStrings(arr)
	if s == nil {
		return nil, nil
	}
	nonNull := validCount(arr)
	if nonNull == 0 {
		return nil, nil
	}

	for _, layout := range t.Formats {
		parsed := make([]time.Time, s.Len())
		ok := make([]bool, s.Len())
		n := 0

		for i := 0; i < s.Len(); i++ {
			if s.IsNull(i) {
				continue
			}
			ts, err := time.Parse(layout, strings.TrimSpace(s.Value(i)))
			if err == nil {
				parsed[i], ok[i] = ts, true
				n++
			}
		}

		if n == 0 || proportion(n, nonNull) < t.Threshold {
			continue
		}

		result, err := t.buildTimestamps(parsed, ok)
		if err != nil {
			return nil, err
		}
		return &Conversion{
			Result: result,
			Meta: map[string]string{
				MetaSemantic: "date",
				"format":     layout,
			},
		}, nil
	}

	return nil, nil
}

func (t *Timestamp) buildTimestamps(parsed []time.Time, ok []bool) (arrow.Array, error) {
	unit := t.Unit
	dt := &arrow.TimestampType{Unit: unit}
	b := array.NewTimestampBuilder(memory.DefaultAllocator, dt)
	defer b.Release()

	for i := range parsed {
		if !ok[i] {
			b.AppendNull()
			continue
		}
		ts, err := arrow.TimestampFromTime(parsed[i], unit)
		if err != nil {
			return nil, fmt.Errorf("timestamp out of range: %w", err)
		}
		b.Append(ts)
	}
	return b.NewArray(), nil
}

var _ Converter = (*Timestamp)(nil)
