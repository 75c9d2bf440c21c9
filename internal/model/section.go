package model

type SectionType string

const (
	SectionPersonalInfo      SectionType = "personal_info"
	SectionSkills            SectionType = "skills"
	SectionExperience        SectionType = "experience"
	SectionEducation         SectionType = "education"
	SectionProjects          SectionType = "projects"
	SectionPersonalStatement SectionType = "personal_statement"
	SectionIndividualProject SectionType = "individual_project"
	SectionGeneral           SectionType = "general"
)

// RawSection is a span of profile text between two delimiter markers.
type RawSection struct {
	Text    string
	Ordinal int
}
