package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/flowgrid/internal/ctxlog"
	"github.com/specialistvlad/flowgrid/internal/fsutil"
	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
)

// JSONExtension is the file extension handled by JSONLoader.
const JSONExtension = ".json"

// Document is the JSON form of a workflow definition: an exported workflow,
// optionally carrying configuration records keyed by store key and header
// entries.
type Document struct {
	ID      string                     `json:"id"`
	Name    string                     `json:"name"`
	Nodes   []node.Node                `json:"nodes"`
	Edges   []node.Edge                `json:"edges"`
	Configs map[string]json.RawMessage `json:"configs,omitempty"`
	Headers []header.Entry             `json:"headers,omitempty"`
}

// JSONLoader reads workflow JSON documents.
type JSONLoader struct{}

// NewJSONLoader creates a JSON definition loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Load reads every .json file under paths. Each file holds one workflow.
func (l *JSONLoader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := fsutil.CollectFiles(paths, JSONExtension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered JSON definition files.", "count", len(files))

	model := &Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		w, err := ParseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
		w.Source = file
		model.Workflows = append(model.Workflows, w)
	}
	return model, nil
}

// ParseDocument decodes one JSON workflow document.
func ParseDocument(data []byte) (*Workflow, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode workflow document: %w", err)
	}
	w := &Workflow{
		ID:      doc.ID,
		Name:    strings.TrimSpace(doc.Name),
		Nodes:   doc.Nodes,
		Edges:   doc.Edges,
		Headers: doc.Headers,
	}
	if w.Name == "" {
		w.Name = w.ID
	}
	for _, t := range nodeconfig.Types() {
		key, _ := nodeconfig.StoreKey(t)
		raw, ok := doc.Configs[key]
		if !ok {
			continue
		}
		records, err := nodeconfig.DecodeList(t, raw)
		if err != nil {
			return nil, fmt.Errorf("configs.%s: %w", key, err)
		}
		w.Configs = append(w.Configs, records...)
	}
	for key := range doc.Configs {
		if _, ok := nodeconfig.TypeForStoreKey(key); !ok {
			return nil, fmt.Errorf("configs.%s: %w", key, nodeconfig.ErrUnknownType)
		}
	}
	return w, nil
}

// Composite dispatches to a loader per file extension.
type Composite struct {
	loaders map[string]Loader
	order   []string
}

// NewComposite creates a loader that serves each extension with the given
// loader. Directories are handed to every loader.
func NewComposite() *Composite {
	return &Composite{loaders: make(map[string]Loader)}
}

// Register adds a loader for an extension such as ".hcl".
func (c *Composite) Register(ext string, l Loader) *Composite {
	if _, exists := c.loaders[ext]; !exists {
		c.order = append(c.order, ext)
	}
	c.loaders[ext] = l
	return c
}

// Load loads each path with the loader for its extension, keeping the order
// of the arguments.
func (c *Composite) Load(ctx context.Context, paths ...string) (*Model, error) {
	model := &Model{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if info.IsDir() {
			for _, ext := range c.order {
				m, err := c.loaders[ext].Load(ctx, path)
				if err != nil {
					return nil, err
				}
				model.Merge(m)
			}
			continue
		}
		l, ok := c.loaders[filepath.Ext(path)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		m, err := l.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		model.Merge(m)
	}
	return model, nil
}
