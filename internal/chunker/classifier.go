package chunker

import (
	"regexp"

	"github.com/xxxsen/profileqa/internal/model"
)

type Rule struct {
	Type    model.SectionType
	Pattern *regexp.Regexp
}

// DefaultRules is evaluated top to bottom and the first match wins.
var DefaultRules = []Rule{
	{Type: model.SectionPersonalInfo, Pattern: regexp.MustCompile(`(?im)^[ \t]*(personal[ \t]+info(rmation)?|contact([ \t]+info(rmation)?)?|email|phone)[ \t]*:`)},
	{Type: model.SectionSkills, Pattern: regexp.MustCompile(`(?im)^[ \t]*((technical|core)[ \t]+)?skills[ \t]*:`)},
	{Type: model.SectionExperience, Pattern: regexp.MustCompile(`(?im)^[ \t]*(((work|professional)[ \t]+)?experience|employment([ \t]+history)?|company)[ \t]*:`)},
	{Type: model.SectionEducation, Pattern: regexp.MustCompile(`(?im)^[ \t]*(education|degree|institution)[ \t]*:`)},
	{Type: model.SectionProjects, Pattern: regexp.MustCompile(`(?im)^[ \t]*projects?[ \t]*:`)},
	{Type: model.SectionPersonalStatement, Pattern: regexp.MustCompile(`(?im)^[ \t]*(personal[ \t]+statement|about([ \t]+me)?|summary|bio)[ \t]*:`)},
}

type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

func (c *Classifier) Classify(text string) model.SectionType {
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(text) {
			return rule.Type
		}
	}
	return model.SectionGeneral
}
