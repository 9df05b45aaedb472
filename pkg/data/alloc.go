// Package data turns the config data dictionary into buffer allocators
// for edges and node state.
package data

import (
	"github.com/xact-systems/xact/pkg/config"
)

// Allocator returns a freshly initialised buffer for one data type.
type Allocator func() any

// atomicAllocators maps the built-in atomic type names to their zero
// buffers.
var atomicAllocators = map[string]Allocator{
	"bool":    func() any { return false },
	"int8":    func() any { return int8(0) },
	"int16":   func() any { return int16(0) },
	"int32":   func() any { return int32(0) },
	"int64":   func() any { return int64(0) },
	"uint8":   func() any { return uint8(0) },
	"uint16":  func() any { return uint16(0) },
	"uint32":  func() any { return uint32(0) },
	"uint64":  func() any { return uint64(0) },
	"float32": func() any { return float32(0) },
	"float64": func() any { return float64(0) },
	"string":  func() any { return "" },
	"bytes":   func() any { return []byte{} },
	"list":    func() any { return []any{} },
	"map":     func() any { return map[string]any{} },

	// An opaque map passes through the queue layer without any claim
	// about its contents.
	"opaque_map": func() any { return map[string]any{} },
}

// buildAllocator constructs the allocator for one data dictionary entry,
// given allocators for everything the entry may reference. It reports
// ok=false when a referenced type is not yet resolved, which drives the
// fixed-point loop in Allocators.
func buildAllocator(spec any, resolved map[string]Allocator) (Allocator, bool, error) {
	switch typed := spec.(type) {

	case string:
		alloc, ok := lookup(typed, resolved)
		return alloc, ok, nil

	case []any:
		return buildCompound(typed, resolved)

	case map[string]any:
		return buildParameterised(typed, resolved)
	}
	return nil, false, config.NewCfgError("data dictionary entry has unsupported form: %T", spec)
}

// buildCompound handles the list-of-single-key-field-maps form. The
// buffer is a map holding one freshly allocated value per field.
func buildCompound(fields []any, resolved map[string]Allocator) (Allocator, bool, error) {
	type fieldAlloc struct {
		name  string
		alloc Allocator
	}
	allocs := make([]fieldAlloc, 0, len(fields))
	for _, field := range fields {
		fieldMap, ok := field.(map[string]any)
		if !ok || len(fieldMap) != 1 {
			return nil, false, config.NewCfgError(
				"compound data type fields must each be a single-key mapping")
		}
		for name, ref := range fieldMap {
			refName, ok := ref.(string)
			if !ok {
				return nil, false, config.NewCfgError(
					"compound data type field %q must name a type", name)
			}
			alloc, ok := lookup(refName, resolved)
			if !ok {
				return nil, false, nil
			}
			allocs = append(allocs, fieldAlloc{name: name, alloc: alloc})
		}
	}
	return func() any {
		buffer := make(map[string]any, len(allocs))
		for _, fa := range allocs {
			buffer[fa.name] = fa.alloc()
		}
		return buffer
	}, true, nil
}

// buildParameterised handles the {type: ..., preset: ...} form. When a
// preset is given the buffer starts from a copy of it.
func buildParameterised(spec map[string]any, resolved map[string]Allocator) (Allocator, bool, error) {
	refName, ok := spec["type"].(string)
	if !ok {
		return nil, false, config.NewCfgError("parameterised data type has no type field")
	}
	alloc, ok := lookup(refName, resolved)
	if !ok {
		return nil, false, nil
	}
	preset, hasPreset := spec["preset"]
	if !hasPreset {
		return alloc, true, nil
	}
	return func() any { return deepCopy(preset) }, true, nil
}

func lookup(name string, resolved map[string]Allocator) (Allocator, bool) {
	if alloc, ok := atomicAllocators[name]; ok {
		return alloc, true
	}
	alloc, ok := resolved[name]
	return alloc, ok
}

// deepCopy clones the plain-data forms that appear in config presets so
// that buffers never share preset structure.
func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for key, item := range typed {
			clone[key] = deepCopy(item)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, item := range typed {
			clone[i] = deepCopy(item)
		}
		return clone
	case []byte:
		clone := make([]byte, len(typed))
		copy(clone, typed)
		return clone
	}
	return value
}
