package store

import (
	"encoding/json"
	"fmt"
)

// Normalize converts an arbitrary Go value into the JSON-shaped form held by the
// store and prunes empty maps. A nil result means "no value".
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return prune(decoded), nil
}

func prune(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			if pruned := prune(child); pruned == nil {
				delete(v, key)
			} else {
				v[key] = pruned
			}
		}
		if len(v) == 0 {
			return nil
		}
		return v
	case []any:
		// Arrays are stored as index-keyed maps.
		node := make(map[string]any, len(v))
		for i, child := range v {
			if pruned := prune(child); pruned != nil {
				node[fmt.Sprint(i)] = pruned
			}
		}
		if len(node) == 0 {
			return nil
		}
		return node
	default:
		return v
	}
}

// Clone deep-copies a snapshot so callers never share backend state.
func Clone(value any) any {
	node, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(node))
	for key, child := range node {
		out[key] = Clone(child)
	}
	return out
}

// Flatten lists the leaves of value keyed by absolute path.
func Flatten(base string, value any) map[string]any {
	leaves := map[string]any{}
	flattenInto(leaves, Clean(base), value)
	return leaves
}

func flattenInto(leaves map[string]any, path string, value any) {
	node, ok := value.(map[string]any)
	if !ok {
		if value != nil {
			leaves[path] = value
		}
		return
	}
	for key, child := range node {
		flattenInto(leaves, Join(path, key), child)
	}
}

// Assemble rebuilds the snapshot at base from leaves keyed by absolute path.
func Assemble(base string, leaves map[string]any) (any, error) {
	base = Clean(base)
	if value, ok := leaves[base]; ok && len(leaves) == 1 {
		return value, nil
	}
	root := map[string]any{}
	for path, value := range leaves {
		rel := Clean(path)
		if base != "" {
			if rel == base {
				continue
			}
			rel = Clean(rel[len(base):])
		}
		keys, err := Segments(rel)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			continue
		}
		node := root
		for _, key := range keys[:len(keys)-1] {
			next, ok := node[key].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[key] = next
			}
			node = next
		}
		node[keys[len(keys)-1]] = value
	}
	if len(root) == 0 {
		return nil, nil
	}
	return root, nil
}
