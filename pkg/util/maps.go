package util

import (
	"fmt"
	"sort"
	"strings"
)

// MergeMaps recursively merges two string-keyed maps. Values from second
// take priority; where both sides hold maps the merge recurses. Neither
// input is modified.
func MergeMaps(first, second map[string]any) map[string]any {
	merged := make(map[string]any, len(first)+len(second))
	for key, value := range first {
		merged[key] = value
	}
	for key, value := range second {
		existing, inFirst := merged[key]
		if inFirst {
			mapExisting, okExisting := existing.(map[string]any)
			mapValue, okValue := value.(map[string]any)
			if okExisting && okValue {
				merged[key] = MergeMaps(mapExisting, mapValue)
				continue
			}
		}
		merged[key] = value
	}
	return merged
}

// SetPath assigns value at the delimiter-separated address inside data.
// Every intermediate segment must already exist and be a map; the final
// segment is assigned unconditionally. A missing or non-map intermediate
// segment returns an error wrapping ErrNotFound.
func SetPath(data map[string]any, address string, value any, delim string) error {
	segments := strings.Split(address, delim)
	cursor := data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := cursor[segment]
		if !ok {
			return fmt.Errorf("address %q: segment %q: %w", address, segment, ErrNotFound)
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("address %q: segment %q is not a mapping: %w",
				address, segment, ErrNotFound)
		}
		cursor = nextMap
	}
	cursor[segments[len(segments)-1]] = value
	return nil
}

// GraftPath inserts value at the delimiter-separated address inside data,
// creating intermediate maps as needed. When both the existing entry and
// value are maps they are merged recursively, value winning.
func GraftPath(data map[string]any, address string, value any, delim string) {
	segments := strings.Split(address, delim)
	cursor := data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := cursor[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cursor[segment] = next
		}
		cursor = next
	}
	last := segments[len(segments)-1]
	existing, ok := cursor[last].(map[string]any)
	if ok {
		if valueMap, isMap := value.(map[string]any); isMap {
			cursor[last] = MergeMaps(existing, valueMap)
			return
		}
	}
	cursor[last] = value
}

// GetPath resolves the delimiter-separated address inside data.
func GetPath(data map[string]any, address string, delim string) (any, error) {
	segments := strings.Split(address, delim)
	var current any = data
	for _, segment := range segments {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("address %q: segment %q: %w", address, segment, ErrNotFound)
		}
		current, ok = currentMap[segment]
		if !ok {
			return nil, fmt.Errorf("address %q: segment %q: %w", address, segment, ErrNotFound)
		}
	}
	return current, nil
}

// SortedKeys returns the keys of a string-keyed map in sorted order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CoalesceString returns the first non-empty string
func CoalesceString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
