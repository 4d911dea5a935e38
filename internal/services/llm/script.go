package llm

import (
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/services"
)

// narration runs around 150 words per minute.
const wordsPerMinute = 150

const scriptSystemPrompt = `You are a scriptwriter for short narrated promotional videos.
Write vivid, concrete narration in short declarative sentences, one scene per sentence.
Return only the narration text without headings, scene numbers, or stage directions.`

// GenerateScript asks the model for a narration script sized to the target
// duration.
func (c *Client) GenerateScript(ctx context.Context, topic string, targetDurationSeconds int) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "generate script", "topic required", nil)
	}
	words := targetDurationSeconds * wordsPerMinute / 60
	userPrompt := fmt.Sprintf(
		"Write a narration script of about %d words for a %d-second video about: %s",
		words, targetDurationSeconds, topic,
	)
	return c.Complete(ctx, scriptSystemPrompt, userPrompt)
}
