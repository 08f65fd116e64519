// Package nodeconfig holds the type-specific configuration record of every
// transformation node. All node types share one Registry keyed by
// (node type, node id); each type keeps its own ordered collection so that
// it can be persisted independently under its store key.
package nodeconfig

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/specialistvlad/flowgrid/internal/node"
)

var (
	// ErrUnknownType is returned for node types that carry no configuration.
	ErrUnknownType = errors.New("node type has no configuration store")
	// ErrMissingID is returned for records without a node id.
	ErrMissingID = errors.New("configuration record has no node id")
)

// Config is a configuration record owned by one node. The concrete types
// below are the only implementations.
type Config interface {
	// NodeID is the id of the owning node.
	NodeID() string
	// NodeType is the node type this record configures.
	NodeType() node.Type
	// withDefaults fills in fields the editor may leave empty.
	withDefaults() Config
}

// Filter keeps rows where Column matches Value under Mode (equal, contains,
// gt, between, is_null, ...). Logic combines consecutive filters ("and"/"or").
type Filter struct {
	ID     string `json:"id"`
	Op     string `json:"op"`
	Mode   string `json:"mode"`
	Logic  string `json:"logic,omitempty"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Select keeps the columns listed in Column, separated by "|".
type Select struct {
	ID     string `json:"id"`
	Op     string `json:"op"`
	Column string `json:"column"`
}

// Str applies a string operation (Mode) to Column.
type Str struct {
	ID          string `json:"id"`
	Op          string `json:"op"`
	Mode        string `json:"mode"`
	Column      string `json:"column"`
	Comparand   string `json:"comparand"`
	Replacement string `json:"replacement"`
}

// Rename renames Column to Value.
type Rename struct {
	ID     string `json:"id"`
	Op     string `json:"op"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Slice extracts Length characters of Column starting at Offset.
type Slice struct {
	ID     string `json:"id"`
	Op     string `json:"op"`
	Mode   string `json:"mode"`
	Column string `json:"column"`
	Offset string `json:"offset"`
	Length string `json:"length"`
}

func (c Filter) NodeID() string      { return c.ID }
func (c Filter) NodeType() node.Type { return node.Filter }
func (c Select) NodeID() string      { return c.ID }
func (c Select) NodeType() node.Type { return node.Select }
func (c Str) NodeID() string         { return c.ID }
func (c Str) NodeType() node.Type    { return node.Str }
func (c Rename) NodeID() string      { return c.ID }
func (c Rename) NodeType() node.Type { return node.Rename }
func (c Slice) NodeID() string       { return c.ID }
func (c Slice) NodeType() node.Type  { return node.Slice }

func (c Filter) withDefaults() Config {
	if c.Op == "" {
		c.Op = string(node.Filter)
	}
	return c
}

func (c Select) withDefaults() Config {
	if c.Op == "" {
		c.Op = string(node.Select)
	}
	return c
}

func (c Str) withDefaults() Config {
	if c.Op == "" {
		c.Op = string(node.Str)
	}
	return c
}

func (c Rename) withDefaults() Config {
	if c.Op == "" {
		c.Op = string(node.Rename)
	}
	return c
}

func (c Slice) withDefaults() Config {
	if c.Op == "" {
		c.Op = string(node.Slice)
	}
	return c
}

// WithDefaults returns cfg with the fields the editor may leave empty filled
// in, the form in which the registry stores it.
func WithDefaults(cfg Config) Config {
	if cfg == nil {
		return nil
	}
	return cfg.withDefaults()
}

// storeKeys maps each configurable node type to its persistence key.
var storeKeys = map[node.Type]string{
	node.Filter: "filters",
	node.Select: "selects",
	node.Str:    "strs",
	node.Rename: "renames",
	node.Slice:  "slices",
}

// Types returns the configurable node types in a stable order.
func Types() []node.Type {
	return []node.Type{node.Filter, node.Select, node.Str, node.Rename, node.Slice}
}

// StoreKey returns the persistence key for a node type.
func StoreKey(t node.Type) (string, bool) {
	key, ok := storeKeys[t]
	return key, ok
}

// TypeForStoreKey is the inverse of StoreKey.
func TypeForStoreKey(key string) (node.Type, bool) {
	for t, k := range storeKeys {
		if k == key {
			return t, true
		}
	}
	return "", false
}

// Decode builds the concrete record for a node type from its JSON form.
func Decode(t node.Type, raw []byte) (Config, error) {
	var (
		cfg Config
		err error
	)
	switch t {
	case node.Filter:
		var c Filter
		err = json.Unmarshal(raw, &c)
		cfg = c
	case node.Select:
		var c Select
		err = json.Unmarshal(raw, &c)
		cfg = c
	case node.Str:
		var c Str
		err = json.Unmarshal(raw, &c)
		cfg = c
	case node.Rename:
		var c Rename
		err = json.Unmarshal(raw, &c)
		cfg = c
	case node.Slice:
		var c Slice
		err = json.Unmarshal(raw, &c)
		cfg = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s configuration: %w", t, err)
	}
	if cfg.NodeID() == "" {
		return nil, fmt.Errorf("%w (type %s)", ErrMissingID, t)
	}
	return cfg.withDefaults(), nil
}

// DecodeList decodes a JSON array of records of one node type.
func DecodeList(t node.Type, raw []byte) ([]Config, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s configuration list: %w", t, err)
	}
	out := make([]Config, 0, len(items))
	for i, item := range items {
		cfg, err := Decode(t, item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}
