package assembly

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConcatList renders a concat-demuxer file list for the given clip paths.
// Paths are made absolute and single quotes are escaped the way ffmpeg's
// concat format expects.
func ConcatList(clipPaths []string) (string, error) {
	if len(clipPaths) == 0 {
		return "", fmt.Errorf("no clips to concatenate")
	}
	var builder strings.Builder
	for _, clip := range clipPaths {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return "", fmt.Errorf("resolve clip path %q: %w", clip, err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&builder, "file '%s'\n", escaped)
	}
	return builder.String(), nil
}
