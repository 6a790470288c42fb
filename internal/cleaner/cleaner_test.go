package cleaner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_LinkedInCutsAtPeopleAlsoViewed(t *testing.T) {
	body := "Senior Go Engineer\nAcme Corp\nBuild things.\n"
	content := body + "People also viewed\nOther job\nSimilar jobs\n"

	out := Default().Clean(content, "https://www.linkedin.com/jobs/view/123")

	i := strings.Index(content, "People also viewed")
	assert.Equal(t, strings.TrimSpace(content[:i]), out)
	assert.Len(t, out, len(strings.TrimSpace(body)))
}

func TestClean_EarliestCutoffWins(t *testing.T) {
	content := "Role\nShow more jobs like this\nmiddle\nCreate job alert\ntail"

	out := Default().Clean(content, "https://linkedin.com/jobs/1")

	assert.Equal(t, "Role", out)
}

func TestClean_KnownSiteWithoutCutoffIsTrimmed(t *testing.T) {
	out := Default().Clean("  \nJust the posting\n\n", "https://www.indeed.com/viewjob?jk=1")
	assert.Equal(t, "Just the posting", out)
}

func TestClean_SiteRulesAreNotCrossApplied(t *testing.T) {
	// Indeed phrase on a Glassdoor URL must survive.
	content := "Posting\nReport job\nJobs You Might Like\nmore"
	out := Default().Clean(content, "https://www.glassdoor.com/job/1")
	assert.Equal(t, "Posting\nReport job", out)
}

func TestClean_GenericPatternsOnUnknownSite(t *testing.T) {
	content := strings.Join([]string{
		"Backend Engineer",
		"Great team.",
		"follow us on Twitter and LinkedIn",
		"SUBSCRIBE TO our newsletter",
		"Copyright 2024 Acme Inc.",
		"Privacy Policy | Cookies",
		"Terms of Service apply",
	}, "\n")

	out := Default().Clean(content, "https://careers.example.com/jobs/42")

	assert.Equal(t, "Backend Engineer\nGreat team.", out)
}

func TestClean_GenericPatternStopsAtLineEnd(t *testing.T) {
	out := Default().Clean("Subscribe to alerts\nKeep me", "https://example.org")
	assert.Equal(t, "Keep me", out)
}

func TestTruncateAtCutoff_NoPhrases(t *testing.T) {
	assert.Equal(t, "abc", TruncateAtCutoff(" abc ", nil))
	assert.Equal(t, "abc", TruncateAtCutoff("abc", []string{"", "zzz"}))
}

func TestClean_Idempotent(t *testing.T) {
	c := Default()
	for _, url := range []string{"https://linkedin.com/jobs/1", "https://example.com/job"} {
		content := "Title\nBody\nSimilar jobs\nPrivacy Policy here\n"
		once := c.Clean(content, url)
		assert.Equal(t, once, c.Clean(once, url), url)
	}
}

func TestLoadRules_OverridesAndExtends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sites:
  - match: lever.co
    cutoffs: ["Apply for this job"]
  - match: linkedin.com
    cutoffs: ["Meet the hiring team"]
generic_patterns:
  - 'All rights reserved.*'
`), 0o644))

	c, err := LoadRules(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "Role", c.Clean("Role\nApply for this job\nform", "https://jobs.lever.co/acme/1"))
	assert.Equal(t, "Role\nPeople also viewed", c.Clean("Role\nPeople also viewed\nMeet the hiring team\nx", "https://linkedin.com/jobs/2"))
	assert.Equal(t, "Role", c.Clean("Role\nall rights reserved 2024", "https://example.com"))
	assert.Equal(t, "Role", c.Clean("Role\nReport job", "https://indeed.com/1"))
}

func TestLoadRules_EmptyPathUsesDefaults(t *testing.T) {
	c, err := LoadRules("", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", c.Clean("x\nSimilar jobs", "https://linkedin.com/jobs/3"))
}

func TestLoadRules_BadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generic_patterns: ['(unclosed']\n"), 0o644))

	_, err := LoadRules(path, nil)
	assert.Error(t, err)
}
