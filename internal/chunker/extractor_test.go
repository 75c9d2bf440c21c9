package chunker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/profileqa/internal/model"
)

func TestExtract(t *testing.T) {
	e := NewExtractor(nil)
	tests := []struct {
		name        string
		sectionType model.SectionType
		text        string
		want        map[string]string
	}{
		{
			name:        "personal info",
			sectionType: model.SectionPersonalInfo,
			text:        "Name:   Jane Doe  \nEmail: jane@x.com\nName: Second",
			want:        map[string]string{model.MetaName: "Jane Doe", model.MetaEmail: "jane@x.com"},
		},
		{
			name:        "personal info without email omits key",
			sectionType: model.SectionPersonalInfo,
			text:        "Contact:\nName: Jane",
			want:        map[string]string{model.MetaName: "Jane"},
		},
		{
			name:        "experience joins titles and companies",
			sectionType: model.SectionExperience,
			text:        "Experience:\nTitle: ML Engineer\nCompany: Acme\nTitle: Intern\nCompany: Beta Labs",
			want: map[string]string{
				model.MetaJobTitles: "ML Engineer, Intern",
				model.MetaCompanies: "Acme, Beta Labs",
			},
		},
		{
			name:        "experience without matches keeps empty lists",
			sectionType: model.SectionExperience,
			text:        "Experience:\nnothing structured",
			want:        map[string]string{model.MetaJobTitles: "", model.MetaCompanies: ""},
		},
		{
			name:        "projects",
			sectionType: model.SectionProjects,
			text:        "Project:\nName: Widget\nProject:\nName: Gadget",
			want:        map[string]string{model.MetaProjectNames: "Widget, Gadget"},
		},
		{
			name:        "education",
			sectionType: model.SectionEducation,
			text:        "Education:\nDegree: BSc Computer Science\nInstitution: University of Lagos",
			want: map[string]string{
				model.MetaDegree:      "BSc Computer Science",
				model.MetaInstitution: "University of Lagos",
			},
		},
		{
			name:        "education without fields",
			sectionType: model.SectionEducation,
			text:        "Education:\nself taught",
			want:        map[string]string{},
		},
		{
			name:        "skills follow vocabulary order",
			sectionType: model.SectionSkills,
			text:        "Skills:\nDocker, LangChain, Python and FastAPI",
			want:        map[string]string{model.MetaSkills: "python, fastapi, langchain, docker"},
		},
		{
			name:        "skills without matches",
			sectionType: model.SectionSkills,
			text:        "Skills:\nknitting",
			want:        map[string]string{model.MetaSkills: ""},
		},
		{
			name:        "general has no fields",
			sectionType: model.SectionGeneral,
			text:        "Name: Jane",
			want:        map[string]string{},
		},
		{
			name:        "statement has no fields",
			sectionType: model.SectionPersonalStatement,
			text:        "Summary:\nName: Jane",
			want:        map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, e.Extract(tt.sectionType, tt.text))
		})
	}
}

func TestExtractLabelValueDoesNotSpanLines(t *testing.T) {
	e := NewExtractor(nil)
	got := e.Extract(model.SectionPersonalInfo, "Name:\nEmail: jane@x.com")
	require.NotContains(t, got, model.MetaName)
	require.Equal(t, "jane@x.com", got[model.MetaEmail])
}

func TestExtractHandlesCRLF(t *testing.T) {
	e := NewExtractor(nil)
	got := e.Extract(model.SectionPersonalInfo, "Name: Jane Doe\r\nEmail: jane@x.com\r\n")
	require.Equal(t, "Jane Doe", got[model.MetaName])
	require.Equal(t, "jane@x.com", got[model.MetaEmail])
}

func TestExtractProject(t *testing.T) {
	e := NewExtractor(nil)
	got := e.ExtractProject("Project:\nName: Widget\nDescription: A widget.\nPrimary Language: Go\nGitHub URL: https://github.com/x/widget")
	require.Equal(t, map[string]string{
		model.MetaProjectName: "Widget",
		model.MetaDescription: "A widget.",
		model.MetaLanguages:   "Go",
		model.MetaGithubURL:   "https://github.com/x/widget",
	}, got)

	got = e.ExtractProject("Project:\nsomething without labels")
	require.Equal(t, map[string]string{
		model.MetaProjectName: "Unknown",
		model.MetaDescription: "",
		model.MetaLanguages:   "",
		model.MetaGithubURL:   "",
	}, got)
}

func TestCustomVocabulary(t *testing.T) {
	e := NewExtractor([]string{" Rust ", "", "Go"})
	got := e.Extract(model.SectionSkills, "Skills: go and rust")
	require.Equal(t, "rust, go", got[model.MetaSkills])
}
