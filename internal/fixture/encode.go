package fixture

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// blockThreshold is the string length above which text is written as a
// literal block scalar.
const blockThreshold = 80

// SaveOptions controls how fixtures are written.
type SaveOptions struct {
	// SortKeys sorts the top-level keys of every section. Without it the
	// order recorded in Fixture.Order is kept. Nested keys are always sorted.
	SortKeys bool
}

// Save writes the fixture to path, creating parent directories.
func Save(path string, f *Fixture, opts SaveOptions) error {
	data, err := Marshal(f, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	return nil
}

// Marshal renders the fixture as YAML.
func Marshal(f *Fixture, opts SaveOptions) ([]byte, error) {
	root := mapping()

	info := mapping()
	appendPair(info, "note", stringNode(f.Info.Note))
	appendPair(info, "source", stringNode(f.Info.Source))
	for _, k := range sortedKeys(f.Info.Extra) {
		n, err := valueNode(f.Info.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("info.%s: %w", k, err)
		}
		appendPair(info, k, n)
	}
	appendPair(root, "info", info)

	inputs := mapping()
	for _, name := range []string{SectionProvided, SectionAssumed} {
		n, err := sectionNode(f.Section(name), f.Order[name], opts)
		if err != nil {
			return nil, fmt.Errorf("inputs.%s: %w", name, err)
		}
		appendPair(inputs, name, n)
	}
	appendPair(root, "inputs", inputs)

	outputs, err := sectionNode(f.Outputs, f.Order[SectionOutputs], opts)
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	appendPair(root, "outputs", outputs)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode fixture: %w", err)
	}
	return buf.Bytes(), nil
}

func sectionNode(tree map[string]any, order []string, opts SaveOptions) (*yaml.Node, error) {
	keys := sortedKeys(tree)
	if !opts.SortKeys && len(order) > 0 {
		keys = orderedKeys(tree, order)
	}
	n := mapping()
	if len(keys) == 0 {
		n.Style = yaml.FlowStyle
	}
	for _, k := range keys {
		v, err := valueNode(tree[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		appendPair(n, k, v)
	}
	return n, nil
}

// orderedKeys lists the keys of tree in the given order, followed by any
// keys the order does not mention in sorted order.
func orderedKeys(tree map[string]any, order []string) []string {
	keys := make([]string, 0, len(tree))
	seen := make(map[string]bool, len(tree))
	for _, k := range order {
		if _, ok := tree[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	for _, k := range sortedKeys(tree) {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

func valueNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return nullNode(), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(x)), nil
	case int:
		return scalar("!!int", strconv.Itoa(x)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(x, 10)), nil
	case float64:
		return floatNode(x), nil
	case string:
		return stringNode(x), nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range x {
			n, err := valueNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case map[string]any:
		m := mapping()
		for _, k := range sortedKeys(x) {
			n, err := valueNode(x[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			appendPair(m, k, n)
		}
		return m, nil
	default:
		var n yaml.Node
		if err := n.Encode(x); err != nil {
			return nil, err
		}
		return &n, nil
	}
}

func floatNode(f float64) *yaml.Node {
	switch {
	case math.IsNaN(f):
		return nullNode()
	case math.IsInf(f, 1):
		return scalar("!!float", ".inf")
	case math.IsInf(f, -1):
		return scalar("!!float", "-.inf")
	}
	// No exponent form: YAML 1.1 readers only resolve floats with a dot.
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return scalar("!!float", s)
}

func stringNode(s string) *yaml.Node {
	n := scalar("!!str", s)
	if strings.Contains(s, "\n") || utf8.RuneCountInString(s) > blockThreshold {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func nullNode() *yaml.Node {
	return scalar("!!null", "null")
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar("!!str", key), value)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
