// Package types provides shared data structures for the testrunner backend.
//
// Request Types:
//   - RunRequest: program and tests to execute
//   - WSMessage: WebSocket communication
//
// Response Types:
//   - RunResponse: success with output and counts, or failure with error
//   - RunEnvelope: response tagged with its run ID
//
// Persistence:
//   - Snippet, SnippetInput: saved program/tests pairs per issue
//   - RunRecord, RunStats: run history
package types
