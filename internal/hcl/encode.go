package hcl

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/zclconf/go-cty/cty"
)

// Encode renders a workflow definition as an HCL file that Loader reads
// back into the same definition. Node data fields have no HCL form and are
// dropped.
func Encode(def *config.Workflow) ([]byte, error) {
	configs := make(map[string]nodeconfig.Config, len(def.Configs))
	for _, cfg := range def.Configs {
		configs[cfg.NodeID()] = cfg
	}
	outputs := make(map[string]string, len(def.Headers))
	for _, h := range def.Headers {
		outputs[h.Value] = h.Label
	}

	f := hclwrite.NewEmptyFile()
	wb := f.Body().AppendNewBlock("workflow", []string{def.ID}).Body()
	if def.Name != "" && def.Name != def.ID {
		wb.SetAttributeValue("name", cty.StringVal(def.Name))
	}

	for _, n := range def.Nodes {
		wb.AppendNewline()
		nb := wb.AppendNewBlock("node", []string{string(n.Type), n.ID}).Body()
		if n.Label != "" {
			nb.SetAttributeValue("label", cty.StringVal(n.Label))
		}
		if out, ok := outputs[n.ID]; ok {
			nb.SetAttributeValue("output", cty.StringVal(out))
		}
		if n.Position != nil {
			nb.SetAttributeValue("position", cty.ObjectVal(map[string]cty.Value{
				"x": cty.NumberFloatVal(n.Position.X),
				"y": cty.NumberFloatVal(n.Position.Y),
			}))
		}
		cfg, ok := configs[n.ID]
		if !ok || cfg.NodeType() != n.Type {
			continue
		}
		attrs, err := configAttributes(cfg)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		cb := nb.AppendNewBlock("config", nil).Body()
		for _, name := range sortedKeys(attrs) {
			cb.SetAttributeValue(name, cty.StringVal(attrs[name]))
		}
	}

	if len(def.Edges) > 0 {
		wb.AppendNewline()
	}
	for _, e := range def.Edges {
		eb := wb.AppendNewBlock("edge", []string{e.Source, e.Target}).Body()
		if e.ID != "" {
			eb.SetAttributeValue("id", cty.StringVal(e.ID))
		}
	}
	return hclwrite.Format(f.Bytes()), nil
}

// configAttributes flattens a record into its non-empty string fields,
// without the id and without an op equal to the node type.
func configAttributes(cfg nodeconfig.Config) (map[string]string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	var attrs map[string]string
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("failed to flatten config: %w", err)
	}
	delete(attrs, "id")
	if attrs["op"] == string(cfg.NodeType()) {
		delete(attrs, "op")
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
