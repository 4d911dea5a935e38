// Package jobs defines the persistent job and segment model for the video
// generation pipeline, the legal status transitions between pipeline stages,
// and the SQLite-backed store both the daemon and the CLI read from.
package jobs
