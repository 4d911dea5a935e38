// Package logging wires log/slog with the repository's conventions: console or
// JSON output, multi-destination writers (stdout plus the daemon log file),
// attribute helpers, and context-derived job/stage/correlation fields.
package logging
