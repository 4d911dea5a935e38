// Command reelsmith is the CLI companion to reelsmithd. It submits video
// generation jobs, inspects their progress, and records approval decisions
// against the daemon's HTTP API.
package main
