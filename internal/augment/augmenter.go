package augment

import (
	"fmt"
	"strings"

	"github.com/xxxsen/profileqa/internal/model"
)

const (
	imageMarker = "[IMAGE: %s]"
	videoMarker = "[VIDEO: %s]"

	chunkSeparator = "\n\n"
)

// Augmenter appends media references to chunks that mention a known project.
type Augmenter struct {
	media []model.ProjectMedia
}

func New(media []model.ProjectMedia) *Augmenter {
	entries := make([]model.ProjectMedia, 0, len(media))
	for _, m := range media {
		key := strings.ToLower(strings.TrimSpace(m.Key))
		if key == "" {
			continue
		}
		entries = append(entries, model.ProjectMedia{
			Key:      key,
			ImageURL: strings.TrimSpace(m.ImageURL),
			VideoURL: strings.TrimSpace(m.VideoURL),
		})
	}
	return &Augmenter{media: entries}
}

// Markers lists the media lines for every entry whose key occurs in content.
func (a *Augmenter) Markers(content string) []string {
	lower := strings.ToLower(content)
	var lines []string
	for _, m := range a.media {
		if !strings.Contains(lower, m.Key) {
			continue
		}
		if m.ImageURL != "" {
			lines = append(lines, fmt.Sprintf(imageMarker, m.ImageURL))
		}
		if m.VideoURL != "" {
			lines = append(lines, fmt.Sprintf(videoMarker, m.VideoURL))
		}
	}
	return lines
}

func (a *Augmenter) Augment(content string) string {
	lines := a.Markers(content)
	if len(lines) == 0 {
		return content
	}
	return content + "\n" + strings.Join(lines, "\n")
}

// Context joins the augmented chunk contents with a blank line.
func (a *Augmenter) Context(chunks []model.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, a.Augment(c.Content))
	}
	return strings.Join(parts, chunkSeparator)
}
