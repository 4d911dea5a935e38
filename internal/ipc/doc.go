// Package ipc provides the HTTP client the CLI uses to talk to a running
// daemon's API.
package ipc
