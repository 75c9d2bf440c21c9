package handler

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/xxxsen/profileqa/internal/config"
)

var (
	htmlFence = regexp.MustCompile("```html?\\s*")
	anyFence  = regexp.MustCompile("```\\s*")
)

// AnswerFormatter cleans model output for the configured answer format.
type AnswerFormatter struct {
	format string
	md     goldmark.Markdown
}

func NewAnswerFormatter(format string) *AnswerFormatter {
	if format == "" {
		format = config.AnswerFormatHTML
	}
	return &AnswerFormatter{
		format: format,
		md:     goldmark.New(goldmark.WithExtensions(extension.Linkify)),
	}
}

func (f *AnswerFormatter) Format(answer string) string {
	clean := htmlFence.ReplaceAllString(answer, "")
	clean = anyFence.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)
	if f.format != config.AnswerFormatHTML {
		return clean
	}
	if strings.HasPrefix(clean, "<") {
		return clean
	}
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(clean), &buf); err != nil || strings.TrimSpace(buf.String()) == "" {
		return "<p>" + clean + "</p>"
	}
	return strings.TrimSpace(buf.String())
}
