package script

import (
	"fmt"
	"strings"

	"reelsmith/internal/jobs"
)

// Splitter divides a narration script into fixed-length timed segments.
type Splitter struct {
	targetDuration  int
	segmentDuration int
	segmentCount    int
}

// NewSplitter builds a splitter for the given durations, both in seconds.
// The target must be a positive multiple of the segment length.
func NewSplitter(targetDuration, segmentDuration int) (*Splitter, error) {
	if segmentDuration <= 0 {
		return nil, fmt.Errorf("segment duration must be positive, got %d", segmentDuration)
	}
	if targetDuration <= 0 || targetDuration%segmentDuration != 0 {
		return nil, fmt.Errorf("target duration %d is not a positive multiple of segment duration %d",
			targetDuration, segmentDuration)
	}
	return &Splitter{
		targetDuration:  targetDuration,
		segmentDuration: segmentDuration,
		segmentCount:    targetDuration / segmentDuration,
	}, nil
}

// SegmentCount returns the number of segments every script splits into.
func (sp *Splitter) SegmentCount() int {
	return sp.segmentCount
}

// Split divides a script into the fixed number of segments, each annotated
// with start/end seconds and image/animation prompts. Segments tile the
// target duration exactly: segment i covers [i*D, (i+1)*D).
func (sp *Splitter) Split(text string) ([]*jobs.Segment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("script is empty")
	}

	chunks := splitIntoChunks(text, sp.segmentCount)

	chunksPerSegment := len(chunks) / sp.segmentCount
	if chunksPerSegment < 1 {
		chunksPerSegment = 1
	}

	segments := make([]*jobs.Segment, 0, sp.segmentCount)
	for i := 0; i < sp.segmentCount; i++ {
		startIdx := i * chunksPerSegment
		endIdx := startIdx + chunksPerSegment
		if i == sp.segmentCount-1 {
			endIdx = len(chunks)
		}
		if startIdx > len(chunks) {
			startIdx = len(chunks)
		}
		if endIdx > len(chunks) {
			endIdx = len(chunks)
		}
		segmentText := strings.Join(chunks[startIdx:endIdx], " ")
		if segmentText == "" && len(chunks) > 0 {
			idx := i
			if idx >= len(chunks) {
				idx = len(chunks) - 1
			}
			segmentText = chunks[idx]
		}

		segments = append(segments, &jobs.Segment{
			Index:           i,
			Text:            segmentText,
			StartSeconds:    i * sp.segmentDuration,
			EndSeconds:      (i + 1) * sp.segmentDuration,
			ImagePrompt:     ImagePrompt(segmentText),
			AnimationPrompt: AnimationPrompt(segmentText),
			Status:          jobs.SegmentPending,
		})
	}
	return segments, nil
}

// splitIntoChunks breaks a script into sentence-sized pieces, falling back to
// newline and long-clause splits when the script has too few sentences, and
// repeating chunks until at least minChunks exist.
func splitIntoChunks(text string, minChunks int) []string {
	sentences := splitSentences(text)

	chunks := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		if trimmed := strings.TrimSpace(sentence); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}

	if len(chunks) < minChunks/2 {
		chunks = chunks[:0]
		for _, sentence := range sentences {
			switch {
			case strings.Contains(sentence, "\n"):
				for _, line := range strings.Split(sentence, "\n") {
					if trimmed := strings.TrimSpace(line); trimmed != "" {
						chunks = append(chunks, trimmed)
					}
				}
			case strings.Contains(sentence, ",") && len(sentence) > 100:
				for _, clause := range strings.Split(sentence, ",") {
					if trimmed := strings.TrimSpace(clause); trimmed != "" {
						chunks = append(chunks, trimmed)
					}
				}
			default:
				if trimmed := strings.TrimSpace(sentence); trimmed != "" {
					chunks = append(chunks, trimmed)
				}
			}
		}
	}

	for len(chunks) > 0 && len(chunks) < minChunks {
		need := minChunks - len(chunks)
		if need > len(chunks) {
			need = len(chunks)
		}
		chunks = append(chunks, chunks[:need]...)
	}

	return chunks
}

// splitSentences cuts text on runs of sentence-ending punctuation.
func splitSentences(text string) []string {
	var (
		sentences []string
		builder   strings.Builder
		inBreak   bool
	)
	flush := func() {
		sentences = append(sentences, builder.String())
		builder.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inBreak {
				flush()
				inBreak = true
			}
		default:
			builder.WriteRune(r)
			inBreak = false
		}
	}
	if builder.Len() > 0 {
		flush()
	}
	return sentences
}
