// Package api serves the canvas editor's HTTP JSON API on top of the
// engine. Every request holds one lock for its whole duration, so the engine
// sees a single mutator. Successful mutations of persisted state are written
// to the state directory when one is configured.
package api
