// Package config loads the bot's run configuration from a YAML file,
// overlaying it on built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/abbrevbot/pkg/report"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default limits. Edits are split between creations and fixes so one noisy
// category cannot starve the other.
const (
	DefaultScrapeLimit   = 10000
	DefaultRedirectLimit = 100
	DefaultCreateLimit   = 10
	DefaultFixLimit      = 10
)

// Config holds everything a run needs to know.
type Config struct {
	// APIURL is the MediaWiki Action API endpoint.
	APIURL string `yaml:"api_url"`

	// UserAgent identifies the bot to the wiki.
	UserAgent string `yaml:"user_agent"`

	// StateFile is the path of the persisted state snapshot shared with
	// the abbreviation oracle.
	StateFile string `yaml:"state_file"`

	// Template is the infobox template whose transclusions are scraped.
	Template string `yaml:"template"`

	// FillCategory is the maintenance category of journals with a missing
	// abbreviation parameter.
	FillCategory string `yaml:"fill_category"`

	// ScrapeLimit caps how many pages one run scrapes.
	ScrapeLimit int `yaml:"scrape_limit"`

	// RedirectLimit caps how many incoming redirects are fetched per page.
	RedirectLimit int `yaml:"redirect_limit"`

	// CreateLimit and FixLimit are the per-run edit budgets.
	CreateLimit int `yaml:"create_limit"`
	FixLimit    int `yaml:"fix_limit"`

	// RateLimit is the minimum interval between API requests.
	RateLimit Duration `yaml:"rate_limit"`

	// Username and Password are the bot account credentials. Runs without
	// them stay anonymous, which is only useful against a test wiki.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// ReportPages names the pages the run reports are published to.
	ReportPages report.Pages `yaml:"report_pages"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		APIURL:        "https://en.wikipedia.org/w/api.php",
		UserAgent:     "abbrevbot/1.0 (https://github.com/coolbeans/abbrevbot)",
		StateFile:     "abbrevBotState.json",
		Template:      "Infobox journal",
		FillCategory:  "Category:Infobox journals with missing ISO 4 abbreviations",
		ScrapeLimit:   DefaultScrapeLimit,
		RedirectLimit: DefaultRedirectLimit,
		CreateLimit:   DefaultCreateLimit,
		FixLimit:      DefaultFixLimit,
		RateLimit:     Duration(2 * time.Second),
		ReportPages: report.Pages{
			Unusual:    "User:AbbrevBot/ISO 4 unusual",
			Mismatches: "User:AbbrevBot/ISO 4 mismatches",
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}
