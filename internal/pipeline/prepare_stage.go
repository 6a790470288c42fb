package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// PrepareStage shapes extracted details into a tracker row.
type PrepareStage struct {
	Now func() time.Time
}

func NewPrepareStage(now func() time.Time) *PrepareStage {
	if now == nil {
		now = time.Now
	}
	return &PrepareStage{Now: now}
}

func (s *PrepareStage) Name() constants.StageName { return constants.StagePrepare }

func (s *PrepareStage) Run(_ context.Context, rec entity.Record) entity.Update {
	if len(rec.ExtractedDetails) == 0 {
		return skipped(common.CodePreparation, common.ErrPreparation, MsgNoDetails)
	}
	row, err := BuildTrackerRow(rec.ExtractedDetails, rec.JobURL, s.Now())
	if err != nil {
		return failed(common.CodePreparation, common.ErrPreparation, err, "Preparation error: %v", err)
	}
	return entity.Update{FinalDetails: &row}
}

// BuildTrackerRow fills every tracker column from details, using the column
// defaults for keys the model left out.
func BuildTrackerRow(details map[string]any, jobURL string, now time.Time) (entity.TrackerRow, error) {
	skills, err := joinSkills(details[constants.KeySkillsRequired])
	if err != nil {
		return entity.TrackerRow{}, err
	}
	return entity.TrackerRow{
		JobTitle:            field(details, constants.KeyJobTitle, constants.NotAvailable),
		Company:             field(details, constants.KeyCompany, constants.NotAvailable),
		Location:            field(details, constants.KeyLocation, constants.NotAvailable),
		JobType:             field(details, constants.KeyJobType, constants.NotAvailable),
		WorkplaceType:       field(details, constants.KeyWorkplaceType, constants.NotAvailable),
		Salary:              field(details, constants.KeySalary, constants.NotMentioned),
		ExperienceRequired:  field(details, constants.KeyExperienceRequired, constants.NotMentioned),
		SkillsRequired:      skills,
		PostedDate:          field(details, constants.KeyPostedDate, constants.NotAvailable),
		ApplicationDeadline: field(details, constants.KeyApplicationDeadline, constants.NotMentioned),
		DateAdded:           now.Format(constants.DateAddedLayout),
		JobURL:              jobURL,
		Notes:               "",
	}, nil
}

func field(details map[string]any, key, def string) string {
	v, ok := details[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func joinSkills(v any) (string, error) {
	switch skills := v.(type) {
	case nil:
		return "", nil
	case string:
		return skills, nil
	case []string:
		return strings.Join(skills, ", "), nil
	case []any:
		parts := make([]string, 0, len(skills))
		for _, s := range skills {
			if s == nil {
				continue
			}
			parts = append(parts, fmt.Sprint(s))
		}
		return strings.Join(parts, ", "), nil
	}
	return "", fmt.Errorf("%s has unsupported type %T", constants.KeySkillsRequired, v)
}
