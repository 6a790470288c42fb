package llm

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars bounds the posting text sent to the model.
const DefaultMaxChars = 8000

// TruncationMarker is appended when posting text was cut.
const TruncationMarker = "\n\n[Content truncated...]"

// JobPostingSystemPrompt asks for the fixed job extraction schema.
const JobPostingSystemPrompt = `You are a job posting analyzer. Extract the following information from the job posting text:

1. job_title: The position title
2. company: Company name
3. location: Job location (city/state or "Remote")
4. job_type: Full-time, Part-time, Contract, Internship, etc.
5. workplace_type: Remote, Hybrid, or Onsite
6. salary: Salary range if mentioned, otherwise "Not mentioned"
7. experience_required: Years of experience needed (e.g., "2-4 years")
8. skills_required: List of top 5-7 required skills
9. posted_date: When the job was posted, if available
10. application_deadline: Deadline if mentioned

Return ONLY a valid JSON object with these fields. If information is not found, use "Not mentioned" or an empty list for skills.

Example format:
{
    "job_title": "Senior Software Engineer",
    "company": "Tech Corp",
    "location": "San Francisco, CA",
    "job_type": "Full-time",
    "workplace_type": "Hybrid",
    "salary": "$120k-$180k",
    "experience_required": "5+ years",
    "skills_required": ["Python", "AWS", "Docker", "React", "PostgreSQL"],
    "posted_date": "2 days ago",
    "application_deadline": "Not mentioned"
}`

// TruncateContent cuts content to maxChars characters (runes), appending
// TruncationMarker when it was cut. maxChars <= 0 means DefaultMaxChars.
func TruncateContent(content string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(content) <= maxChars {
		return content, false
	}
	runes := []rune(content)
	return string(runes[:maxChars]) + TruncationMarker, true
}

// BuildUserPrompt packages the posting text for the model.
func BuildUserPrompt(content string) string {
	var b strings.Builder
	b.WriteString("Job Posting Content:\n\n")
	b.WriteString(content)
	return b.String()
}
