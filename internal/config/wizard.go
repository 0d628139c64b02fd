package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path, and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to blaze! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site title.
	titlePrompt := promptui.Prompt{
		Label:   "Site title",
		Default: cfg.PageTitle,
	}
	title, err := titlePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site title: %w", err)
	}
	cfg.PageTitle = title

	// 2. Content directory.
	contentPrompt := promptui.Prompt{
		Label:   "Content directory (markdown notes)",
		Default: cfg.ContentDir,
	}
	contentDir, err := contentPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	cfg.ContentDir = contentDir

	// 3. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for the generated site",
		Default: cfg.OutputDir,
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	cfg.OutputDir = outputDir

	// 4. Publish mode.
	publishPrompt := promptui.Select{
		Label: "Which pages should be published?",
		Items: []string{
			"all      — every markdown page",
			"explicit — only pages with `publish: true` front matter",
		},
	}
	publishIdx, _, err := publishPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("publish mode: %w", err)
	}
	cfg.PublishMode = []PublishMode{PublishAll, PublishExplicit}[publishIdx]

	// 5. Extra ignore patterns.
	ignorePrompt := promptui.Prompt{
		Label:   "Extra ignore patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	ignoreStr, err := ignorePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("ignore patterns: %w", err)
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, splitAndTrim(ignoreStr)...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.ContentDir); os.IsNotExist(err) {
		fmt.Printf("\nNote: %s does not exist yet. Add markdown files there before running blaze build.\n", cfg.ContentDir)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			token := trimSpace(s[start:i])
			if token != "" {
				result = append(result, token)
			}
			start = i + 1
		}
	}
	return result
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}
