// Package approval implements the human checkpoint between pipeline stages.
// A running job parks at a gate; humans record approve/reject verdicts
// through a small SQLite-backed store, and the gate polls for them. Verdicts
// carry a TTL so a decision made long after the question was asked cannot
// silently release a later gate.
package approval
