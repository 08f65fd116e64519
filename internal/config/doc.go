// Package config defines the format-agnostic model of workflow definition
// files and the Loader interface implemented per file format.
//
// A definition describes complete workflows: the graph, each node's
// configuration record and header label. Loaders for HCL and JSON live in
// separate packages or files; the engine only sees the Model.
package config
