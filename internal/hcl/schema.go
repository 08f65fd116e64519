package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all top-level blocks of a file.
type fileRoot struct {
	Workflows []*Workflow `hcl:"workflow,block"`
	Remain    hcl.Body    `hcl:",remain"`
}

// Workflow represents a `workflow` block.
type Workflow struct {
	ID    string  `hcl:"id,label"`
	Name  string  `hcl:"name,optional"`
	Nodes []*Node `hcl:"node,block"`
	Edges []*Edge `hcl:"edge,block"`
}

// Node represents a `node` block inside a workflow.
type Node struct {
	Type     string         `hcl:"type,label"`
	ID       string         `hcl:"id,label"`
	Label    string         `hcl:"label,optional"`
	Output   string         `hcl:"output,optional"`
	Position hcl.Expression `hcl:"position,optional"`
	Config   *ConfigBlock   `hcl:"config,block"`
}

// ConfigBlock holds the node's configuration attributes.
type ConfigBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Edge represents an `edge` block; its labels are source and target.
type Edge struct {
	Source string `hcl:"source,label"`
	Target string `hcl:"target,label"`
	ID     string `hcl:"id,optional"`
}
