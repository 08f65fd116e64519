// Package persist stores the engine's state as a directory of JSON files:
// workflow.json for the workflow store, headers.json for header labels and
// one file per configuration store (filters.json, selects.json, ...). Every
// file wraps its payload in an object keyed by the store name.
//
// Writes go through a temporary file and a rename so that a crash never
// leaves a truncated file behind. Missing files load as empty stores.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/flowgrid/internal/ctxlog"
	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/specialistvlad/flowgrid/internal/workflow"
)

const (
	tempFileSuffix = ".tmp"
	dirPermission  = 0o755
	filePermission = 0o644

	workflowKey = "workflow"
	headersKey  = "headers"
)

// Snapshot is everything that is persisted.
type Snapshot struct {
	Workflows workflow.State
	Headers   []header.Entry
	Configs   map[string][]nodeconfig.Config // keyed by store key
}

// Dir is a state directory.
type Dir struct {
	path string
}

// New returns a Dir rooted at path. The directory is created on first Save.
func New(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Save writes every store of the snapshot.
func (d *Dir) Save(ctx context.Context, s Snapshot) error {
	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(d.path, dirPermission); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", d.path, err)
	}

	state := s.Workflows
	if state.List == nil {
		state.List = []workflow.Workflow{}
	}
	if err := d.write(workflowKey, state); err != nil {
		return err
	}

	entries := s.Headers
	if entries == nil {
		entries = []header.Entry{}
	}
	if err := d.write(headersKey, entries); err != nil {
		return err
	}

	for _, t := range nodeconfig.Types() {
		key, _ := nodeconfig.StoreKey(t)
		records := s.Configs[key]
		if records == nil {
			records = []nodeconfig.Config{}
		}
		if err := d.write(key, records); err != nil {
			return err
		}
	}
	logger.Debug("State saved.", "dir", d.path, "workflows", len(state.List), "headers", len(entries))
	return nil
}

// Load reads every store. Files that do not exist yield empty stores.
func (d *Dir) Load(ctx context.Context) (Snapshot, error) {
	logger := ctxlog.FromContext(ctx)
	s := Snapshot{Configs: make(map[string][]nodeconfig.Config)}

	if _, err := d.read(workflowKey, &s.Workflows); err != nil {
		return Snapshot{}, err
	}
	if _, err := d.read(headersKey, &s.Headers); err != nil {
		return Snapshot{}, err
	}
	for _, t := range nodeconfig.Types() {
		key, _ := nodeconfig.StoreKey(t)
		var raw json.RawMessage
		found, err := d.read(key, &raw)
		if err != nil {
			return Snapshot{}, err
		}
		if !found || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		records, err := nodeconfig.DecodeList(t, raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load %s: %w", d.file(key), err)
		}
		s.Configs[key] = records
	}
	logger.Debug("State loaded.", "dir", d.path, "workflows", len(s.Workflows.List), "headers", len(s.Headers))
	return s, nil
}

func (d *Dir) file(key string) string {
	return filepath.Join(d.path, key+".json")
}

// write stores {key: value} in key.json.
func (d *Dir) write(key string, value any) error {
	path := d.file(key)
	tmp := path + tempFileSuffix
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermission)
	if err != nil {
		return fmt.Errorf("open file %s: %w", tmp, err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]any{key: value}); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode file %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename file %s to %s: %w", tmp, path, err)
	}
	return nil
}

// read decodes the value under key from key.json into out. It reports
// false, with no error, when the file does not exist.
func (d *Dir) read(key string, out any) (bool, error) {
	path := d.file(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read file %s: %w", path, err)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return false, fmt.Errorf("decode file %s: %w", path, err)
	}
	raw, ok := envelope[key]
	if !ok {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %q in %s: %w", key, path, err)
	}
	return true, nil
}
