// Package daemon ties the job store, approval gate, and workflow manager
// together behind a single-instance lock and exposes them over the HTTP API.
package daemon
