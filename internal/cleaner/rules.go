package cleaner

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFile is the on-disk shape of a cleaner rules file:
//
//	sites:
//	  - match: lever.co
//	    cutoffs: ["Apply for this job"]
//	generic_patterns:
//	  - 'All rights reserved.*'
type RulesFile struct {
	Sites           []SiteRule `yaml:"sites"`
	GenericPatterns []string   `yaml:"generic_patterns"`
}

// LoadRules builds a cleaner from the defaults overlaid with the rules in path.
// A site whose match equals a default replaces it; new sites are checked first.
// Generic patterns from the file are appended to the defaults.
// An empty path yields the default cleaner.
func LoadRules(path string, logger *slog.Logger) (*Cleaner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return New(DefaultSiteRules, DefaultGenericPatterns, logger)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rf RulesFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	sites, generic := mergeRules(rf)
	logger.Info("cleaner.rules.loaded", "path", path, "sites", len(sites), "generic_patterns", len(generic))
	return New(sites, generic, logger)
}

func mergeRules(rf RulesFile) ([]SiteRule, []string) {
	overridden := make(map[string]bool, len(rf.Sites))
	sites := make([]SiteRule, 0, len(rf.Sites)+len(DefaultSiteRules))
	for _, s := range rf.Sites {
		if s.Match == "" {
			continue
		}
		overridden[s.Match] = true
		sites = append(sites, s)
	}
	for _, s := range DefaultSiteRules {
		if !overridden[s.Match] {
			sites = append(sites, s)
		}
	}
	generic := append(append([]string(nil), DefaultGenericPatterns...), rf.GenericPatterns...)
	return sites, generic
}
