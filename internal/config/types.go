package config

// PublishMode controls which pages are published.
type PublishMode string

const (
	// PublishAll publishes every markdown page.
	PublishAll PublishMode = "all"
	// PublishExplicit publishes only pages with `publish: true` front matter.
	PublishExplicit PublishMode = "explicit"
)

// Config is the top-level blaze configuration, corresponding to blaze.yml.
type Config struct {
	PageTitle       string      `yaml:"page_title" koanf:"page_title"`
	PageTitleSuffix string      `yaml:"page_title_suffix" koanf:"page_title_suffix"`
	Locale          string      `yaml:"locale" koanf:"locale"`
	BaseURL         string      `yaml:"base_url" koanf:"base_url"`
	ContentDir      string      `yaml:"content_dir" koanf:"content_dir"`
	TemplateDir     string      `yaml:"template_dir" koanf:"template_dir"`
	OutputDir       string      `yaml:"output_dir" koanf:"output_dir"`
	CacheDir        string      `yaml:"cache_dir" koanf:"cache_dir"`
	IgnorePatterns  []string    `yaml:"ignore_patterns" koanf:"ignore_patterns"`
	PublishMode     PublishMode `yaml:"publish_mode" koanf:"publish_mode"`
	HighlightStyle  string      `yaml:"highlight_style" koanf:"highlight_style"`
	MaxConcurrency  int         `yaml:"max_concurrency" koanf:"max_concurrency"`
	Cache           bool        `yaml:"cache" koanf:"cache"`
}
