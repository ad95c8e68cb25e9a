// Package qname converts between nested variable trees and flat qualified
// names. A qualified name joins the path segments of a leaf with a double
// underscore, e.g. "sozialversicherung__rente__beitrag__betrag_versicherter_m".
package qname

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Separator joins the path segments of a qualified name.
const Separator = "__"

var (
	// ErrConflict is returned when a name is both a leaf and a prefix of another name.
	ErrConflict = errors.New("qualified name conflict")
	// ErrInvalid is returned for names with empty path segments.
	ErrInvalid = errors.New("invalid qualified name")
)

// Join builds a qualified name from path segments.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Split breaks a qualified name into its path segments.
func Split(name string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalid)
	}
	parts := strings.Split(name, Separator)
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalid, name)
		}
	}
	return parts, nil
}

// Flatten turns a nested tree into qualified leaves. Empty subtrees vanish.
func Flatten(tree map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", tree)
	return out
}

func flattenInto(out map[string]any, prefix string, tree map[string]any) {
	for k, v := range tree {
		name := k
		if prefix != "" {
			name = prefix + Separator + k
		}
		if sub, ok := v.(map[string]any); ok {
			flattenInto(out, name, sub)
			continue
		}
		out[name] = v
	}
}

// Unflatten rebuilds the nested tree from qualified leaves.
func Unflatten(flat map[string]any) (map[string]any, error) {
	tree := make(map[string]any)
	// Sorted keys make conflict errors name the same pair on every run.
	for _, name := range SortedKeys(flat) {
		parts, err := Split(name)
		if err != nil {
			return nil, err
		}
		node := tree
		for i, p := range parts[:len(parts)-1] {
			existing, ok := node[p]
			if !ok {
				child := make(map[string]any)
				node[p] = child
				node = child
				continue
			}
			child, isTree := existing.(map[string]any)
			if !isTree {
				return nil, fmt.Errorf("%w: %q is a leaf and a prefix of %q",
					ErrConflict, Join(parts[:i+1]...), name)
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, ok := node[leaf].(map[string]any); ok {
			return nil, fmt.Errorf("%w: %q is a leaf and a group", ErrConflict, name)
		}
		node[leaf] = flat[name]
	}
	return tree, nil
}

// Rename moves the leaf stored under old to new. It reports whether old was present.
func Rename(flat map[string]any, old, new string) bool {
	v, ok := flat[old]
	if !ok {
		return false
	}
	delete(flat, old)
	flat[new] = v
	return true
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
