package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
type YAMLConfig struct {
	Page PageConfig `yaml:"page"`
}

// PageConfig holds the copy shown on the form page.
type PageConfig struct {
	Intro            string            `yaml:"intro"`
	FeedbackLabels   map[string]string `yaml:"feedback_labels"`   // radio value -> label
	ExperienceLabels map[string]string `yaml:"experience_labels"` // experience value -> label
	ReasonPrompt     string            `yaml:"reason_prompt"`
}

// DefaultPageConfig returns the built-in page copy.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Intro: "Choose a distillery and a whisky for each of the three slots, then ask for a recommendation.",
		FeedbackLabels: map[string]string{
			"know":      "I know this whisky",
			"dont-know": "I don't know this whisky",
		},
		ExperienceLabels: map[string]string{
			"beginner":    "Just starting out",
			"enthusiast":  "Enthusiast",
			"connoisseur": "Connoisseur",
		},
		ReasonPrompt: "Tell us what you would like to know about it",
	}
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Apply overlays non-empty YAML values onto c.
func (y *YAMLConfig) Apply(c *Config) {
	if y == nil {
		return
	}
	if y.Page.Intro != "" {
		c.Page.Intro = y.Page.Intro
	}
	if y.Page.ReasonPrompt != "" {
		c.Page.ReasonPrompt = y.Page.ReasonPrompt
	}
	for k, v := range y.Page.FeedbackLabels {
		if _, known := c.Page.FeedbackLabels[k]; known && v != "" {
			c.Page.FeedbackLabels[k] = v
		}
	}
	for k, v := range y.Page.ExperienceLabels {
		if _, known := c.Page.ExperienceLabels[k]; known && v != "" {
			c.Page.ExperienceLabels[k] = v
		}
	}
}
