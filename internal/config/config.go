package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"

	"github.com/xxxsen/profileqa/internal/model"
)

const (
	IndexTypeMemory   = "memory"
	IndexTypeSQLite   = "sqlite"
	IndexTypePostgres = "postgres"

	AnswerFormatHTML     = "html"
	AnswerFormatMarkdown = "markdown"
	AnswerFormatText     = "text"

	DefaultLambda = 0.7
)

type Config struct {
	Port                    int                  `json:"port"`
	LogConfig               logger.LogConfig     `json:"log_config"`
	Profile                 SourceConfig         `json:"profile"`
	AI                      AIConfig             `json:"ai"`
	Retrieval               RetrievalConfig      `json:"retrieval"`
	Index                   IndexConfig          `json:"index"`
	InstructionTemplate     string               `json:"instruction_template"`
	InstructionTemplateFile string               `json:"instruction_template_file"`
	ChatTemplate            string               `json:"chat_template"`
	AnswerFormat            string               `json:"answer_format"`
	ProjectMedia            []model.ProjectMedia `json:"project_media"`
	SkillVocabulary         []string             `json:"skill_vocabulary"`
	MaxQuestionChars        int                  `json:"max_question_chars"`
	CORSAllowlist           []string             `json:"cors_allowlist"`
	RateLimitSeconds        int                  `json:"rate_limit_seconds"`
	ReindexCron             string               `json:"reindex_cron"`
	AdminSecret             string               `json:"admin_secret"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Generators []ProviderConfig `json:"generators"`
	Embedders  []ProviderConfig `json:"embedders"`
	Timeout    int              `json:"timeout"`
}

type RetrievalConfig struct {
	K      int `json:"k"`
	FetchK int `json:"fetch_k"`
	// Lambda is nil when unset; 0 selects for diversity only.
	Lambda *float64 `json:"lambda"`
}

type EmbedCacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type IndexConfig struct {
	Type       string           `json:"type"`
	SQLitePath string           `json:"sqlite_path"`
	Postgres   DatabaseConfig   `json:"postgres"`
	EmbedQPS   float64          `json:"embed_qps"`
	EmbedCache EmbedCacheConfig `json:"embed_cache"`
}

// Load reads a JSON or YAML config file. ${VAR} references inside string
// values are expanded from the environment after decoding; a bare $ is kept.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	var tree interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &tree)
	default:
		err = json.Unmarshal(raw, &tree)
	}
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	var cfg Config
	if err := decodeTree(expandTree(tree), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.InstructionTemplate == "" && cfg.InstructionTemplateFile != "" {
		data, err := os.ReadFile(cfg.InstructionTemplateFile)
		if err != nil {
			return nil, fmt.Errorf("read instruction template: %w", err)
		}
		cfg.InstructionTemplate = string(data)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandString(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}

// expandTree walks a decoded document and expands env references in every
// string value. Keys are left alone.
func expandTree(node interface{}) interface{} {
	switch v := node.(type) {
	case string:
		return expandString(v)
	case map[string]interface{}:
		for k, item := range v {
			v[k] = expandTree(item)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = expandTree(item)
		}
		return v
	default:
		return v
	}
}

// decodeTree goes through JSON so that one set of json tags serves both formats.
func decodeTree(tree interface{}, dst *Config) error {
	if tree == nil {
		return nil
	}
	blob, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, dst)
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Profile.Type == "" {
		cfg.Profile.Type = "local"
	}
	if cfg.Profile.Type == "local" && cfg.Profile.Data == nil {
		cfg.Profile.Data = map[string]interface{}{"path": "profile.txt"}
	}
	if len(cfg.AI.Embedders) == 0 {
		cfg.AI.Embedders = []ProviderConfig{{Name: "tfidf", Provider: "tfidf", Model: "tfidf"}}
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = 6
	}
	if cfg.Retrieval.FetchK == 0 {
		cfg.Retrieval.FetchK = 12
	}
	if cfg.Retrieval.Lambda == nil {
		lambda := DefaultLambda
		cfg.Retrieval.Lambda = &lambda
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = IndexTypeMemory
	}
	if cfg.Index.Type == IndexTypeSQLite && cfg.Index.SQLitePath == "" {
		cfg.Index.SQLitePath = "profileqa.db"
	}
	if cfg.InstructionTemplate == "" {
		cfg.InstructionTemplate = DefaultInstructionTemplate
	}
	if cfg.ChatTemplate == "" {
		cfg.ChatTemplate = DefaultChatTemplate
	}
	if cfg.AnswerFormat == "" {
		cfg.AnswerFormat = AnswerFormatHTML
	}
	if cfg.ProjectMedia == nil {
		cfg.ProjectMedia = DefaultProjectMedia()
	}
	if cfg.MaxQuestionChars == 0 {
		cfg.MaxQuestionChars = 2000
	}
	if cfg.RateLimitSeconds == 0 {
		cfg.RateLimitSeconds = 1
	}
}

func Validate(cfg *Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range")
	}
	if len(cfg.AI.Generators) == 0 {
		return fmt.Errorf("ai.generators is required")
	}
	for i, g := range cfg.AI.Generators {
		if g.Provider == "" || g.Model == "" {
			return fmt.Errorf("ai.generators[%d] provider/model are required", i)
		}
	}
	for i, e := range cfg.AI.Embedders {
		if e.Provider == "" {
			return fmt.Errorf("ai.embedders[%d] provider is required", i)
		}
	}
	r := cfg.Retrieval
	if r.K < 1 {
		return fmt.Errorf("retrieval.k must be positive")
	}
	if r.FetchK < r.K {
		return fmt.Errorf("retrieval.fetch_k must be >= retrieval.k")
	}
	if r.Lambda == nil || *r.Lambda < 0 || *r.Lambda > 1 {
		return fmt.Errorf("retrieval.lambda must be within [0, 1]")
	}
	switch cfg.Index.Type {
	case IndexTypeMemory, IndexTypeSQLite:
	case IndexTypePostgres:
		pg := cfg.Index.Postgres
		if pg.DSN == "" && pg.Host == "" {
			return fmt.Errorf("index.postgres dsn or host is required")
		}
	default:
		return fmt.Errorf("index.type must be memory, sqlite or postgres")
	}
	if cfg.Index.EmbedQPS < 0 {
		return fmt.Errorf("index.embed_qps must not be negative")
	}
	switch cfg.AnswerFormat {
	case AnswerFormatHTML, AnswerFormatMarkdown, AnswerFormatText:
	default:
		return fmt.Errorf("answer_format must be html, markdown or text")
	}
	if !hasSlots(cfg.InstructionTemplate) {
		return fmt.Errorf("instruction_template must contain {context} and {question}")
	}
	if !hasSlots(cfg.ChatTemplate) {
		return fmt.Errorf("chat_template must contain {context} and {question}")
	}
	return nil
}

func hasSlots(tpl string) bool {
	return strings.Contains(tpl, "{context}") && strings.Contains(tpl, "{question}")
}
