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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magpierre/arrowcast/cast"
	"github.com/magpierre/arrowcast/config"
)

const samplePipeline = `
converters:
  - type: number
    threshold: 0.9
  - type: timestamp
    formats: ["2006-01-02", "02/01/2006"]
  - type: category
    max_cardinality: 0.25
  - type: text
`

func TestPipelineBuild(t *testing.T) {
	p, err := config.Parse([]byte(samplePipeline))
	require.NoError(t, err)

	convs, err := p.Build(cast.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, convs, 4)

	num, ok := convs[0].(*cast.Number)
	require.True(t, ok)
	assert.Equal(t, 0.9, num.Threshold)
	// Parameters the entry does not mention keep their factory defaults.
	assert.True(t, num.AllowUnsigned)

	ts, ok := convs[1].(*cast.Timestamp)
	require.True(t, ok)
	assert.Equal(t, []string{"2006-01-02", "02/01/2006"}, ts.Formats)

	cat, ok := convs[2].(*cast.Category)
	require.True(t, ok)
	require.NotNil(t, cat.MaxCardinality)
	assert.Equal(t, 0.25, *cat.MaxCardinality)

	_, ok = convs[3].(*cast.Text)
	require.True(t, ok)
}

func TestPipelineOrderPreserved(t *testing.T) {
	doc := `
converters:
  - type: text
  - type: number
`
	p, err := config.Parse([]byte(doc))
	require.NoError(t, err)

	convs, err := p.Build(cast.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, convs, 2)

	_, ok := convs[0].(*cast.Text)
	assert.True(t, ok)
	_, ok = convs[1].(*cast.Number)
	assert.True(t, ok)
}

func TestPipelineUnknownType(t *testing.T) {
	p, err := config.Parse([]byte("converters:\n  - type: decimal\n"))
	require.NoError(t, err)

	_, err = p.Build(cast.DefaultRegistry())
	require.ErrorIs(t, err, cast.ErrConfig)
}

func TestPipelineMissingType(t *testing.T) {
	_, err := config.Parse([]byte("converters:\n  - threshold: 0.5\n"))
	require.ErrorIs(t, err, cast.ErrConfig)
}

func TestPipelineEmpty(t *testing.T) {
	p, err := config.Parse([]byte("converters: []\n"))
	require.NoError(t, err)

	_, err = p.Build(cast.DefaultRegistry())
	require.ErrorIs(t, err, cast.ErrConfig)
}

func TestPipelineBadYAML(t *testing.T) {
	_, err := config.Parse([]byte("converters: [whoops"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePipeline), 0o644))

	p, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Converters, 4)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
