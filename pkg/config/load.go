package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/clbanning/mxj/v2"
	"gopkg.in/yaml.v3"

	"github.com/xact-systems/xact/pkg/util"
)

// cfgSuffixes lists the recognised config file formats, keyed by
// filename extension.
var cfgSuffixes = []string{".yaml", ".json", ".xml", ".toml"}

// fromPath loads configuration from a file or directory path into the
// generic mapping form.
func fromPath(path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewCfgError("the specified configuration path does not exist: %s", path)
	}
	if info.IsDir() {
		return fromDir(path)
	}
	return fromFile(path)
}

// fromDir loads every *.cfg.{yaml,json,xml,toml} file in the directory.
//
// Files are loaded in ascending order of filename prefix length, with
// root.* first of all. The prefix names the address at which the file's
// content is grafted, so files that are broader in scope load first and
// narrower, more specific files override them.
func fromDir(dir string) (map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapCfgError("cannot read configuration directory", err)
	}

	type fileInfo struct {
		sortKey int
		path    string
		address string
	}
	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		idx := strings.Index(name, ".cfg.")
		if idx < 0 || !hasCfgSuffix(name) {
			continue
		}
		address := name[:idx]
		sortKey := len(address)
		if address == "root" {
			sortKey = 0
		}
		files = append(files, fileInfo{
			sortKey: sortKey,
			path:    filepath.Join(dir, name),
			address: address,
		})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].sortKey != files[j].sortKey {
			return files[i].sortKey < files[j].sortKey
		}
		return files[i].path < files[j].path
	})

	cfg := make(map[string]any)
	for _, fi := range files {
		content, err := fromFile(fi.path)
		if err != nil {
			return nil, err
		}
		if fi.address == "root" {
			cfg = util.MergeMaps(cfg, content)
			continue
		}
		util.GraftPath(cfg, fi.address, content, ".")
	}
	return cfg, nil
}

func hasCfgSuffix(name string) bool {
	for _, suffix := range cfgSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// fromFile loads a single config file, selecting the reader from the
// filename extension.
func fromFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapCfgError("cannot read configuration file", err)
	}
	switch filepath.Ext(path) {
	case ".yaml":
		return fromYAML(path, raw)
	case ".json":
		return fromJSON(path, raw)
	case ".toml":
		return fromTOML(path, raw)
	case ".xml":
		return fromXML(path, raw)
	}
	return nil, NewCfgError("did not recognize filename extension: %s", path)
}

func fromYAML(path string, raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, WrapCfgError(fmt.Sprintf("error reading file %s", path), err)
	}
	return data, nil
}

// fromJSON parses JSON that may carry // or # comment lines.
func fromJSON(path string, raw []byte) (map[string]any, error) {
	var kept []string
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, line)
	}
	var data map[string]any
	// YAML is a superset of JSON; this also tolerates trailing commas
	// produced by hand-edited files.
	if err := yaml.Unmarshal([]byte(strings.Join(kept, "\n")), &data); err != nil {
		return nil, WrapCfgError(fmt.Sprintf("error reading file %s", path), err)
	}
	return data, nil
}

func fromTOML(path string, raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := toml.Unmarshal(raw, &data); err != nil {
		return nil, WrapCfgError(fmt.Sprintf("error reading file %s", path), err)
	}
	return data, nil
}

// fromXML parses XML into the mapping form. A sole top-level <root>
// element is unwrapped so that XML files line up with the other formats.
func fromXML(path string, raw []byte) (map[string]any, error) {
	m, err := mxj.NewMapXml(raw, true)
	if err != nil {
		return nil, WrapCfgError(fmt.Sprintf("error reading file %s", path), err)
	}
	data := map[string]any(m)
	if len(data) == 1 {
		if inner, ok := data["root"].(map[string]any); ok {
			data = inner
		}
	}
	return data, nil
}
