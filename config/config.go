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

// Package config builds converter pipelines from YAML. A pipeline is an
// ordered list of converter entries, each naming a registered converter type
// plus its parameters:
//
//	converters:
//	  - type: number
//	    threshold: 0.95
//	  - type: timestamp
//	    formats: ["2006-01-02"]
//	  - type: category
//	    max_cardinality: 0.1
//	  - type: text
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/magpierre/arrowcast/cast"
)

// Pipeline is the top-level configuration document.
type Pipeline struct {
	Converters []Entry `yaml:"converters"`
}

// Entry is one converter in the pipeline. The full node is kept so the
// type-specific parameters can be decoded into the converter the registry
// produces.
type Entry struct {
	Type string
	node yaml.Node
}

func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	var header struct {
		Type string `yaml:"type"`
	}
	if err := node.Decode(&header); err != nil {
		return err
	}
	if header.Type == "" {
		return fmt.Errorf("%w: converter entry is missing a type", cast.ErrConfig)
	}
	e.Type = header.Type
	e.node = *node
	return nil
}

// Build instantiates the pipeline's converters, in order, from the given
// registry. Defaults set by the registry factories survive for parameters
// the entry does not mention.
func (p *Pipeline) Build(reg *cast.Registry) ([]cast.Converter, error) {
	if len(p.Converters) == 0 {
		return nil, fmt.Errorf("%w: pipeline has no converters", cast.ErrConfig)
	}

	convs := make([]cast.Converter, 0, len(p.Converters))
	for i := range p.Converters {
		e := &p.Converters[i]
		c, err := reg.New(e.Type)
		if err != nil {
			return nil, err
		}
		if err := e.node.Decode(c); err != nil {
			return nil, fmt.Errorf("converter %q: %w", e.Type, err)
		}
		convs = append(convs, c)
	}
	return convs, nil
}

// Parse decodes a pipeline document.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	return &p, nil
}

// Load reads and decodes a pipeline document from a file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	return Parse(data)
}
