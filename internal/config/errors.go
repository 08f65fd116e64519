package config

import "errors"

var (
	// ErrNoWorkflow is returned when a definition contains no workflow.
	ErrNoWorkflow = errors.New("no workflow defined")
	// ErrAmbiguous is returned when one workflow was expected but several
	// were defined.
	ErrAmbiguous = errors.New("more than one workflow defined")
	// ErrUnsupportedFormat is returned for files no loader understands.
	ErrUnsupportedFormat = errors.New("unsupported definition format")
)
