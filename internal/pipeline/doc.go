// Package pipeline runs a single job through the full generation sequence,
// from script generation through approvals, segment rendering, audio, and
// final assembly. Each state transition is persisted so an interrupted job
// resumes at the stage it stopped in.
package pipeline
