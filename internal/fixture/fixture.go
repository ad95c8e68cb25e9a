// Package fixture reads and writes the YAML test fixtures consumed by the
// simulator's test suite.
//
// A fixture file has three top-level sections:
//
//	info:     free-text note and source of the test case
//	inputs:   provided and assumed input columns
//	outputs:  expected output columns
//
// Inputs and outputs are trees whose leaves are lists with one element per
// person row. Leaves may also be stored under flat qualified names; see
// package qname.
package fixture

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned for files that do not have the fixture layout.
var ErrMalformed = errors.New("malformed fixture")

// Section names, also used as keys of Fixture.Order.
const (
	SectionProvided = "provided"
	SectionAssumed  = "assumed"
	SectionOutputs  = "outputs"
)

// Info holds the descriptive part of a fixture.
type Info struct {
	Note   string
	Source string
	// Extra keeps any other info keys found in the file.
	Extra map[string]any
}

// Fixture is one test case.
type Fixture struct {
	Info     Info
	Provided map[string]any
	Assumed  map[string]any
	Outputs  map[string]any

	// Order records the top-level key order per section as read from disk
	// or as built by a converter. It is used when saving without SortKeys.
	Order map[string][]string
}

// New returns an empty fixture.
func New() *Fixture {
	return &Fixture{
		Provided: map[string]any{},
		Assumed:  map[string]any{},
		Outputs:  map[string]any{},
		Order:    map[string][]string{},
	}
}

// Section returns the tree stored under a section name.
func (f *Fixture) Section(name string) map[string]any {
	switch name {
	case SectionProvided:
		return f.Provided
	case SectionAssumed:
		return f.Assumed
	case SectionOutputs:
		return f.Outputs
	}
	return nil
}

func (f *Fixture) setSection(name string, tree map[string]any) {
	switch name {
	case SectionProvided:
		f.Provided = tree
	case SectionAssumed:
		f.Assumed = tree
	case SectionOutputs:
		f.Outputs = tree
	}
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformed)
	}
	root := doc.Content[0]

	f := New()
	var haveInputs, haveOutputs bool
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "info":
			if err := decodeInfo(val, &f.Info); err != nil {
				return nil, err
			}
		case "inputs":
			haveInputs = true
			if val.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%w: inputs is not a mapping", ErrMalformed)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				if name != SectionProvided && name != SectionAssumed {
					return nil, fmt.Errorf("%w: unknown inputs section %q", ErrMalformed, name)
				}
				if err := f.decodeSection(name, val.Content[j+1]); err != nil {
					return nil, err
				}
			}
		case "outputs":
			haveOutputs = true
			if err := f.decodeSection(SectionOutputs, val); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown top-level key %q", ErrMalformed, key)
		}
	}
	if !haveInputs {
		return nil, fmt.Errorf("%w: missing inputs", ErrMalformed)
	}
	if !haveOutputs {
		return nil, fmt.Errorf("%w: missing outputs", ErrMalformed)
	}
	return f, nil
}

func (f *Fixture) decodeSection(name string, node *yaml.Node) error {
	// "assumed: {}" and a bare "assumed:" both mean an empty section.
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		f.setSection(name, map[string]any{})
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: %s is not a mapping", ErrMalformed, name)
	}
	tree := map[string]any{}
	if err := node.Decode(&tree); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	order := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		order = append(order, node.Content[i].Value)
	}
	f.setSection(name, tree)
	f.Order[name] = order
	return nil
}

func decodeInfo(node *yaml.Node, info *Info) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: info: %v", ErrMalformed, err)
	}
	for k, v := range raw {
		switch k {
		case "note":
			info.Note = stringValue(v)
		case "source":
			info.Source = stringValue(v)
		default:
			if info.Extra == nil {
				info.Extra = map[string]any{}
			}
			info.Extra[k] = v
		}
	}
	return nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
