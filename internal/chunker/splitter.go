package chunker

import (
	"strings"

	"github.com/xxxsen/profileqa/internal/model"
)

// Delimiter separates logical sections of the profile document.
const Delimiter = "________________"

// Split cuts text on Delimiter, trims every piece and drops empty ones.
// Ordinals follow document order and count only kept sections.
func Split(text string) []model.RawSection {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := strings.Split(text, Delimiter)
	sections := make([]model.RawSection, 0, len(pieces))
	for _, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			continue
		}
		sections = append(sections, model.RawSection{Text: trimmed, Ordinal: len(sections)})
	}
	return sections
}
