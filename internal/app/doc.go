// Package app wires the engine to its surroundings: configuration, logging,
// the state directory, definition loaders, the backend connection and the
// HTTP API. It is decoupled from any specific entrypoint like a CLI.
package app
