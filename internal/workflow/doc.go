// Package workflow coordinates background job processing. The manager polls
// the store for pending jobs, runs each through the pipeline under a bounded
// concurrency limit with a per-job deadline and retry policy, and sweeps
// stale working directories.
package workflow
