// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates flags, the config file and FLOWGRID_* variables into the
// application's configuration and runs one command against the app.
package cli
