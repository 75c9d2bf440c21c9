package model

// Metadata keys carried by chunks.
const (
	MetaName         = "name"
	MetaEmail        = "email"
	MetaJobTitles    = "job_titles"
	MetaCompanies    = "companies"
	MetaProjectNames = "project_names"
	MetaDegree       = "degree"
	MetaInstitution  = "institution"
	MetaSkills       = "skills"
	MetaProjectName  = "project_name"
	MetaDescription  = "description"
	MetaLanguages    = "languages"
	MetaGithubURL    = "github_url"
)

type Chunk struct {
	Content     string            `json:"content"`
	SectionType SectionType       `json:"section_type"`
	CharCount   int               `json:"char_count"`
	HasURLs     bool              `json:"has_urls"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Meta returns the value for key and whether the chunk carries it.
func (c Chunk) Meta(key string) (string, bool) {
	v, ok := c.Metadata[key]
	return v, ok
}
