package data

import (
	"sort"
	"strings"

	"github.com/xact-systems/xact/pkg/config"
)

// Allocators resolves a data dictionary into one allocator per entry.
//
// Entries may reference each other by name regardless of declaration
// order, so resolution runs as a fixed point: each pass builds every
// entry whose references are already resolved, and resolution fails as
// soon as a pass makes no progress. That catches both references to
// undefined types and reference cycles.
func Allocators(dictionary map[string]any) (map[string]Allocator, error) {
	resolved := make(map[string]Allocator, len(dictionary))
	pending := make(map[string]any, len(dictionary))
	for name, spec := range dictionary {
		pending[name] = spec
	}

	for len(pending) > 0 {
		progressed := false
		for _, name := range sortedNames(pending) {
			alloc, ok, err := buildAllocator(pending[name], resolved)
			if err != nil {
				return nil, config.WrapCfgError("data type "+name, err)
			}
			if !ok {
				continue
			}
			resolved[name] = alloc
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			return nil, config.NewCfgError(
				"data types cannot be resolved (undefined reference or cycle): %s",
				strings.Join(sortedNames(pending), ", "))
		}
	}
	return resolved, nil
}

func sortedNames(pending map[string]any) []string {
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
