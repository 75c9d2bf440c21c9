package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/profileqa/internal/model"
)

var projectBoundary = regexp.MustCompile(`(?im)^[ \t]*project[ \t]*:`)

type Builder struct {
	classifier *Classifier
	extractor  *Extractor
}

func NewBuilder(classifier *Classifier, extractor *Extractor) *Builder {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	return &Builder{classifier: classifier, extractor: extractor}
}

// BuildDocument splits text and builds its chunks.
func (b *Builder) BuildDocument(text string) []model.Chunk {
	return b.Build(Split(text))
}

// Build emits one chunk per section followed by one individual_project chunk
// per block of the first projects section.
func (b *Builder) Build(sections []model.RawSection) []model.Chunk {
	chunks := make([]model.Chunk, 0, len(sections))
	for _, section := range sections {
		sectionType := b.classifier.Classify(section.Text)
		chunks = append(chunks, newChunk(section.Text, sectionType, b.extractor.Extract(sectionType, section.Text)))
	}
	projects, ok := firstOfType(chunks, model.SectionProjects)
	if !ok {
		return chunks
	}
	for _, block := range splitProjects(projects.Content) {
		chunks = append(chunks, newChunk(block, model.SectionIndividualProject, b.extractor.ExtractProject(block)))
	}
	return chunks
}

func firstOfType(chunks []model.Chunk, sectionType model.SectionType) (model.Chunk, bool) {
	for _, c := range chunks {
		if c.SectionType == sectionType {
			return c, true
		}
	}
	return model.Chunk{}, false
}

func splitProjects(content string) []string {
	bounds := projectBoundary.FindAllStringIndex(content, -1)
	if len(bounds) == 0 {
		return nil
	}
	// text before the first boundary stays in the aggregate chunk only
	blocks := make([]string, 0, len(bounds))
	for i, bound := range bounds {
		end := len(content)
		if i+1 < len(bounds) {
			end = bounds[i+1][0]
		}
		if block := strings.TrimSpace(content[bound[0]:end]); block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func newChunk(text string, sectionType model.SectionType, fields map[string]string) model.Chunk {
	content := strings.TrimSpace(text)
	return model.Chunk{
		Content:     content,
		SectionType: sectionType,
		CharCount:   utf8.RuneCountInString(content),
		HasURLs:     HasURLs(content),
		Metadata:    fields,
	}
}

// HasURLs reports whether text contains an http:// or https:// substring.
func HasURLs(text string) bool {
	return strings.Contains(text, "http://") || strings.Contains(text, "https://")
}
