package cleaner

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// SiteRule cuts page text at the first cutoff phrase for URLs containing Match.
type SiteRule struct {
	Match   string   `yaml:"match"`
	Cutoffs []string `yaml:"cutoffs"`
}

// DefaultSiteRules are the built-in job board rules, checked in order.
var DefaultSiteRules = []SiteRule{
	{
		Match: "linkedin.com",
		Cutoffs: []string{
			"Sign in to create job alert",
			"Create job alert",
			"Similar jobs",
			"People also viewed",
			"Show more jobs like this",
		},
	},
	{
		Match: "indeed.com",
		Cutoffs: []string{
			"Report job",
			"Not interested",
			"People also searched",
			"Jobs you might be interested in",
		},
	},
	{
		Match: "glassdoor.com",
		Cutoffs: []string{
			"Sign In to see similar jobs",
			"Jobs You Might Like",
			"Similar Jobs",
		},
	},
}

// DefaultGenericPatterns strip common footer boilerplate on unknown sites.
// Matching is case-insensitive and stops at the end of a line.
var DefaultGenericPatterns = []string{
	`Follow us on.*`,
	`Subscribe to.*`,
	`Copyright \d{4}.*`,
	`Privacy Policy.*`,
	`Terms of Service.*`,
}

// Cleaner removes non-posting content from parsed page text.
type Cleaner struct {
	sites   []SiteRule
	generic []*regexp.Regexp
	logger  *slog.Logger
}

// New builds a cleaner from site rules and generic patterns.
func New(sites []SiteRule, genericPatterns []string, logger *slog.Logger) (*Cleaner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	compiled := make([]*regexp.Regexp, 0, len(genericPatterns))
	for _, p := range genericPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile generic pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Cleaner{sites: sites, generic: compiled, logger: logger}, nil
}

// Default returns a cleaner with the built-in rules.
func Default() *Cleaner {
	c, err := New(DefaultSiteRules, DefaultGenericPatterns, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Clean applies the rule of the first site whose Match is a substring of url,
// or the generic cleanup when no site matches.
func (c *Cleaner) Clean(content, url string) string {
	if rule, ok := c.match(url); ok {
		out := TruncateAtCutoff(content, rule.Cutoffs)
		c.logger.Debug("cleaner.site", "site", rule.Match, "in_len", len(content), "out_len", len(out))
		return out
	}
	out := content
	for _, re := range c.generic {
		out = re.ReplaceAllString(out, "")
	}
	return strings.TrimSpace(out)
}

func (c *Cleaner) match(url string) (SiteRule, bool) {
	for _, r := range c.sites {
		if r.Match != "" && strings.Contains(url, r.Match) {
			return r, true
		}
	}
	return SiteRule{}, false
}

// TruncateAtCutoff drops everything from the earliest occurring cutoff phrase on
// and trims the result. Content without any cutoff is only trimmed.
func TruncateAtCutoff(content string, cutoffs []string) string {
	earliest := -1
	for _, phrase := range cutoffs {
		if phrase == "" {
			continue
		}
		if i := strings.Index(content, phrase); i != -1 && (earliest == -1 || i < earliest) {
			earliest = i
		}
	}
	if earliest != -1 {
		content = content[:earliest]
	}
	return strings.TrimSpace(content)
}
