package workflow

import "errors"

var (
	// ErrNoSelection is returned by operations on the current workflow when
	// none is selected.
	ErrNoSelection = errors.New("no selected workspace")
	// ErrNotFound is returned when a workflow id is not in the store.
	ErrNotFound = errors.New("the workspace does not exist")
	// ErrDuplicate is returned when an imported workflow id is already used.
	ErrDuplicate = errors.New("workspace already exists")
	// ErrInvalidDocument is returned for import documents that are not
	// workflows.
	ErrInvalidDocument = errors.New("invalid workflow document")
	// ErrEmptyName is returned when a workflow name is blank.
	ErrEmptyName = errors.New("workflow name must not be empty")
)
