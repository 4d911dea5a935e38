// Package api defines the transport-friendly view types exchanged between
// the daemon HTTP API and its clients, plus converters from the storage
// models.
package api
