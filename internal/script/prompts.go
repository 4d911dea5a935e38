package script

import "strings"

const imagePromptLimit = 200

const imageStyleDirectives = " | Cinematic lighting, high quality, 4K resolution, " +
	"professional photography, vibrant colors, sharp focus"

// motionHints maps narration keywords to the camera motion that suits them.
// Order matters: the first keyword found in the text wins.
var motionHints = []struct {
	keyword string
	motion  string
}{
	{"move", "smooth camera movement"},
	{"fly", "flying motion"},
	{"zoom", "zoom in effect"},
	{"rotate", "rotating motion"},
	{"pan", "panning camera"},
	{"reveal", "revealing motion"},
	{"show", "slow reveal"},
	{"appear", "fade in effect"},
	{"fast", "dynamic fast motion"},
	{"slow", "slow smooth motion"},
}

// ImagePrompt builds a still-image generation prompt from segment narration.
// The narration is truncated so the style directives always fit.
func ImagePrompt(segmentText string) string {
	excerpt := segmentText
	if len(excerpt) > imagePromptLimit {
		excerpt = excerpt[:imagePromptLimit]
	}
	return "Professional advertising image: " + excerpt + imageStyleDirectives
}

// AnimationPrompt builds an image-to-video prompt, choosing a motion style
// from keywords in the narration and defaulting to smooth cinematic motion.
func AnimationPrompt(segmentText string) string {
	style := "smooth cinematic motion"
	lower := strings.ToLower(segmentText)
	for _, hint := range motionHints {
		if strings.Contains(lower, hint.keyword) {
			style = hint.motion
			break
		}
	}
	return "Animate with " + style + ", subtle movement, professional quality, " +
		"5 seconds duration, seamless loop"
}
