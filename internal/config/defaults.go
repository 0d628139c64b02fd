package config

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "blaze.yml"

// DefaultIgnorePatterns are content patterns skipped by default.
var DefaultIgnorePatterns = []string{
	"private",
	"templates",
	"*.tmp",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PageTitle:       "Blaze",
		PageTitleSuffix: "",
		Locale:          "en-US",
		BaseURL:         "",
		ContentDir:      "content",
		TemplateDir:     "templates",
		OutputDir:       "public",
		CacheDir:        ".blaze",
		IgnorePatterns:  append([]string(nil), DefaultIgnorePatterns...),
		PublishMode:     PublishAll,
		HighlightStyle:  "github",
		MaxConcurrency:  20,
		Cache:           true,
	}
}
