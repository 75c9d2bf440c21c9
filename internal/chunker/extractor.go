package chunker

import (
	"regexp"
	"strings"

	"github.com/xxxsen/profileqa/internal/model"
)

const (
	listSeparator      = ", "
	unknownProjectName = "Unknown"
)

// DefaultSkillVocabulary is matched against lowercased skills text, in this order.
var DefaultSkillVocabulary = []string{
	"python",
	"javascript",
	"typescript",
	"golang",
	"react",
	"node.js",
	"fastapi",
	"django",
	"flask",
	"langchain",
	"langgraph",
	"llamaindex",
	"openai",
	"hugging face",
	"huggingface",
	"pytorch",
	"tensorflow",
	"scikit-learn",
	"pandas",
	"numpy",
	"sql",
	"postgresql",
	"supabase",
	"mongodb",
	"faiss",
	"chroma",
	"docker",
	"kubernetes",
	"aws",
	"gcp",
	"azure",
	"machine learning",
	"deep learning",
	"nlp",
	"computer vision",
	"tailwind",
}

type labelPattern struct {
	re *regexp.Regexp
}

func newLabel(label string) labelPattern {
	parts := strings.Fields(label)
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	expr := `(?im)^[ \t]*` + strings.Join(parts, `[ \t]+`) + `[ \t]*:[ \t]*(\S[^\r\n]*)`
	return labelPattern{re: regexp.MustCompile(expr)}
}

func (l labelPattern) first(text string) (string, bool) {
	m := l.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func (l labelPattern) all(text string) string {
	matches := l.re.FindAllStringSubmatch(text, -1)
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		values = append(values, strings.TrimSpace(m[1]))
	}
	return strings.Join(values, listSeparator)
}

var (
	labelName            = newLabel("Name")
	labelEmail           = newLabel("Email")
	labelTitle           = newLabel("Title")
	labelCompany         = newLabel("Company")
	labelDegree          = newLabel("Degree")
	labelInstitution     = newLabel("Institution")
	labelDescription     = newLabel("Description")
	labelPrimaryLanguage = newLabel("Primary Language")
	labelGithubURL       = newLabel("GitHub URL")
)

type Extractor struct {
	vocabulary []string
}

func NewExtractor(vocabulary []string) *Extractor {
	if len(vocabulary) == 0 {
		vocabulary = DefaultSkillVocabulary
	}
	normalized := make([]string, 0, len(vocabulary))
	for _, term := range vocabulary {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		normalized = append(normalized, term)
	}
	return &Extractor{vocabulary: normalized}
}

// Extract returns the fields defined for sectionType. Singular fields are
// omitted when absent, list fields are present with an empty value.
func (e *Extractor) Extract(sectionType model.SectionType, text string) map[string]string {
	fields := make(map[string]string)
	switch sectionType {
	case model.SectionPersonalInfo:
		setFirst(fields, model.MetaName, labelName, text)
		setFirst(fields, model.MetaEmail, labelEmail, text)
	case model.SectionExperience:
		fields[model.MetaJobTitles] = labelTitle.all(text)
		fields[model.MetaCompanies] = labelCompany.all(text)
	case model.SectionProjects:
		fields[model.MetaProjectNames] = labelName.all(text)
	case model.SectionEducation:
		setFirst(fields, model.MetaDegree, labelDegree, text)
		setFirst(fields, model.MetaInstitution, labelInstitution, text)
	case model.SectionSkills:
		fields[model.MetaSkills] = e.skills(text)
	}
	return fields
}

// ExtractProject always returns all four project fields.
func (e *Extractor) ExtractProject(text string) map[string]string {
	name, ok := labelName.first(text)
	if !ok {
		name = unknownProjectName
	}
	description, _ := labelDescription.first(text)
	languages, _ := labelPrimaryLanguage.first(text)
	githubURL, _ := labelGithubURL.first(text)
	return map[string]string{
		model.MetaProjectName: name,
		model.MetaDescription: description,
		model.MetaLanguages:   languages,
		model.MetaGithubURL:   githubURL,
	}
}

func (e *Extractor) skills(text string) string {
	lower := strings.ToLower(text)
	found := make([]string, 0, len(e.vocabulary))
	for _, term := range e.vocabulary {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return strings.Join(found, listSeparator)
}

func setFirst(fields map[string]string, key string, label labelPattern, text string) {
	if v, ok := label.first(text); ok {
		fields[key] = v
	}
}
