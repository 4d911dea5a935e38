// Package media shells out to ffmpeg and ffprobe to execute the assembly
// plans: concatenation, audio retiming and muxing, compression, and probes.
package media
