package constants

// Tracker column headers, in the fixed order rows are written to a store.
const (
	ColJobTitle            = "Job Title"
	ColCompany             = "Company"
	ColLocation            = "Location"
	ColJobType             = "Job Type"
	ColWorkplaceType       = "Workplace Type"
	ColSalary              = "Salary"
	ColExperienceRequired  = "Experience Required"
	ColSkillsRequired      = "Skills Required"
	ColPostedDate          = "Posted Date"
	ColApplicationDeadline = "Application Deadline"
	ColDateAdded           = "Date Added"
	ColJobURL              = "Job URL"
	ColNotes               = "Notes"
)

// TrackerColumns is the persisted layout of a tracker row.
var TrackerColumns = []string{
	ColJobTitle,
	ColCompany,
	ColLocation,
	ColJobType,
	ColWorkplaceType,
	ColSalary,
	ColExperienceRequired,
	ColSkillsRequired,
	ColPostedDate,
	ColApplicationDeadline,
	ColDateAdded,
	ColJobURL,
	ColNotes,
}

// Defaults for fields the model left out.
const (
	NotAvailable = "N/A"
	NotMentioned = "Not mentioned"
)

// DateAddedLayout formats the Date Added column.
const DateAddedLayout = "2006-01-02 15:04:05"

// Extraction schema keys returned by the document extractor.
const (
	KeyJobTitle            = "job_title"
	KeyCompany             = "company"
	KeyLocation            = "location"
	KeyJobType             = "job_type"
	KeyWorkplaceType       = "workplace_type"
	KeySalary              = "salary"
	KeyExperienceRequired  = "experience_required"
	KeySkillsRequired      = "skills_required"
	KeyPostedDate          = "posted_date"
	KeyApplicationDeadline = "application_deadline"
)

// ExtractionKeys lists the schema keys in prompt order.
var ExtractionKeys = []string{
	KeyJobTitle,
	KeyCompany,
	KeyLocation,
	KeyJobType,
	KeyWorkplaceType,
	KeySalary,
	KeyExperienceRequired,
	KeySkillsRequired,
	KeyPostedDate,
	KeyApplicationDeadline,
}
