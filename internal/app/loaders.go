package app

import (
	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/hcl"
)

// newDefinitionLoader returns the loader for every definition format
// compiled into the binary.
func newDefinitionLoader() *config.Composite {
	return config.NewComposite().
		Register(hcl.Extension, hcl.NewLoader()).
		Register(config.JSONExtension, config.NewJSONLoader())
}
