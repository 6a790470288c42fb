package entity

// TrackerRow is a normalized, presentation-ready tracker entry.
type TrackerRow struct {
	JobTitle            string `json:"Job Title"`
	Company             string `json:"Company"`
	Location            string `json:"Location"`
	JobType             string `json:"Job Type"`
	WorkplaceType       string `json:"Workplace Type"`
	Salary              string `json:"Salary"`
	ExperienceRequired  string `json:"Experience Required"`
	SkillsRequired      string `json:"Skills Required"`
	PostedDate          string `json:"Posted Date"`
	ApplicationDeadline string `json:"Application Deadline"`
	DateAdded           string `json:"Date Added"`
	JobURL              string `json:"Job URL"`
	Notes               string `json:"Notes"`
}

// Values returns the row in constants.TrackerColumns order.
func (t TrackerRow) Values() []string {
	return []string{
		t.JobTitle,
		t.Company,
		t.Location,
		t.JobType,
		t.WorkplaceType,
		t.Salary,
		t.ExperienceRequired,
		t.SkillsRequired,
		t.PostedDate,
		t.ApplicationDeadline,
		t.DateAdded,
		t.JobURL,
		t.Notes,
	}
}
