// Package integration_tests runs definition files end to end: loading,
// validation, planning and a socket.io round trip to an in-process backend.
package integration_tests
