package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathGivesDefaults(t *testing.T) {
	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Template != "Infobox journal" {
		t.Errorf("Template = %q, want the default infobox", config.Template)
	}
	if config.CreateLimit != DefaultCreateLimit || config.FixLimit != DefaultFixLimit {
		t.Errorf("edit limits = %d/%d, want defaults", config.CreateLimit, config.FixLimit)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
api_url: https://test.wikipedia.org/w/api.php
create_limit: 3
rate_limit: 5s
report_pages:
  unusual: User:AbbrevBot/Sandbox unusual
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.APIURL != "https://test.wikipedia.org/w/api.php" {
		t.Errorf("APIURL = %q, want the override", config.APIURL)
	}
	if config.CreateLimit != 3 || config.FixLimit != DefaultFixLimit {
		t.Errorf("limits = %d/%d, want 3 and the default fix limit", config.CreateLimit, config.FixLimit)
	}
	if config.RateLimit.Std() != 5*time.Second {
		t.Errorf("RateLimit = %v, want 5s", config.RateLimit)
	}
	if config.ReportPages.Unusual != "User:AbbrevBot/Sandbox unusual" {
		t.Errorf("ReportPages.Unusual = %q, want the override", config.ReportPages.Unusual)
	}
	if config.ReportPages.Mismatches == "" {
		t.Error("ReportPages.Mismatches lost its default")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load accepted a missing config file")
	}
}
