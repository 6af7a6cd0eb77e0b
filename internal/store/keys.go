package store

import (
	"sort"
	"strconv"
)

// Keys returns the children of a snapshot map in collection-native order:
// canonical non-negative integer keys first by numeric value, then the rest in byte order.
func Keys(node map[string]any) []string {
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})
	return keys
}

func lessKey(a, b string) bool {
	ai, aNum := integerKey(a)
	bi, bNum := integerKey(b)
	switch {
	case aNum && bNum:
		return ai < bi
	case aNum:
		return true
	case bNum:
		return false
	default:
		return a < b
	}
}

func integerKey(key string) (uint64, bool) {
	if key == "" || len(key) > 19 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Child returns the map stored under key, or nil.
func Child(node map[string]any, key string) map[string]any {
	if node == nil {
		return nil
	}
	child, _ := node[key].(map[string]any)
	return child
}

// AsMap returns a snapshot as a map, or nil when it is absent or a leaf.
func AsMap(snapshot any) map[string]any {
	node, _ := snapshot.(map[string]any)
	return node
}
