// Package render drives the asynchronous image generation and animation API:
// create a task, poll it to completion under a deadline, download the
// artifact. It implements the segment orchestrator's Renderer interface.
package render
