package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"go.yaml.in/yaml/v3"
)

// Loader loads workflow documents by name.
type Loader interface {
	Load(name string) (*Document, error)
}

// FileLoader loads documents from {name}.json, {name}.yaml or {name}.yml
// in a list of directories.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches dirs in order.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first document named name found in the loader directories.
func (l *FileLoader) Load(name string) (*Document, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return LoadFile(path)
		}
	}
	return nil, fmt.Errorf("workflow: %q not found in %v", name, l.dirs)
}

// LoadFile reads a document from path. The format follows the extension;
// anything that is not .yaml/.yml is parsed as JSON.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("workflow: parsing %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a document. JSON that fails to decode is passed through
// jsonrepair once (trailing commas, single quotes, unquoted keys) before
// giving up.
func Parse(data []byte, format string) (*Document, error) {
	var doc Document
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			repaired, rerr := jsonrepair.JSONRepair(string(data))
			if rerr != nil {
				return nil, err
			}
			if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
				return nil, err
			}
		}
	}
	normalize(&doc)
	return &doc, nil
}

// normalize converts YAML-decoded maps inside results and parameter values
// to the map[string]any shape JSON produces.
func normalize(doc *Document) {
	for i := range doc.Nodes {
		d := &doc.Nodes[i].Data
		d.Result = normalizeValue(d.Result)
		for j := range d.Parameters {
			d.Parameters[j].Value = normalizeValue(d.Parameters[j].Value)
		}
	}
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = normalizeValue(inner)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = normalizeValue(inner)
		}
		return out
	case []any:
		for i, inner := range val {
			val[i] = normalizeValue(inner)
		}
		return val
	}
	return v
}
