package entity

import (
	"errors"
	"maps"

	"github.com/joseph-ayodele/jobs-tracker/constants"
)

// Record is the per-job state threaded through the pipeline. Every optional
// field is written by exactly one stage and never changed afterwards.
type Record struct {
	JobURL           string            `json:"job_url"`
	RawHTML          *string           `json:"raw_html,omitempty"`
	FetchStatus      *constants.Status `json:"fetch_status,omitempty"`
	ParsedContent    *string           `json:"parsed_content,omitempty"`
	ExtractedDetails map[string]any    `json:"extracted_details,omitempty"`
	FinalDetails     *TrackerRow       `json:"final_details,omitempty"`
	SaveStatus       *constants.Status `json:"save_status,omitempty"`
	TrackerID        *string           `json:"tracker_id,omitempty"`
	ErrorMessage     *string           `json:"error_message,omitempty"`

	// Cause is the error behind ErrorMessage; it wraps one of the common.Err*
	// stage kinds. Set together with ErrorMessage.
	Cause error `json:"-"`
}

// Update is the partial result of one stage.
type Update struct {
	RawHTML          *string
	FetchStatus      *constants.Status
	ParsedContent    *string
	ExtractedDetails map[string]any
	FinalDetails     *TrackerRow
	SaveStatus       *constants.Status
	TrackerID        *string
	ErrorMessage     *string
	Cause            error
}

// NewRecord seeds a record for jobURL.
func NewRecord(jobURL string) Record {
	return Record{JobURL: jobURL}
}

// Failure builds an update carrying only an error.
func Failure(message string, cause error) Update {
	return Update{ErrorMessage: &message, Cause: cause}
}

// Merge applies u to the record. Fields already set are left untouched and their
// names are returned in rejected; ErrorMessage is first-set-wins and never
// reported, since downstream no-op stages routinely emit one.
func (r *Record) Merge(u Update) (rejected []string) {
	setString(&r.RawHTML, u.RawHTML, "raw_html", &rejected)
	setStatus(&r.FetchStatus, u.FetchStatus, "fetch_status", &rejected)
	setString(&r.ParsedContent, u.ParsedContent, "parsed_content", &rejected)
	if u.ExtractedDetails != nil {
		if r.ExtractedDetails == nil {
			r.ExtractedDetails = maps.Clone(u.ExtractedDetails)
		} else {
			rejected = append(rejected, "extracted_details")
		}
	}
	if u.FinalDetails != nil {
		if r.FinalDetails == nil {
			row := *u.FinalDetails
			r.FinalDetails = &row
		} else {
			rejected = append(rejected, "final_details")
		}
	}
	setStatus(&r.SaveStatus, u.SaveStatus, "save_status", &rejected)
	setString(&r.TrackerID, u.TrackerID, "tracker_id", &rejected)
	if u.ErrorMessage != nil && r.ErrorMessage == nil {
		msg := *u.ErrorMessage
		r.ErrorMessage = &msg
		r.Cause = u.Cause
	}
	return rejected
}

func setString(dst **string, src *string, name string, rejected *[]string) {
	if src == nil {
		return
	}
	if *dst != nil {
		*rejected = append(*rejected, name)
		return
	}
	v := *src
	*dst = &v
}

func setStatus(dst **constants.Status, src *constants.Status, name string, rejected *[]string) {
	if src == nil {
		return
	}
	if *dst != nil {
		*rejected = append(*rejected, name)
		return
	}
	v := *src
	*dst = &v
}

// Succeeded reports whether the job row was saved.
func (r Record) Succeeded() bool {
	return r.SaveStatus != nil && *r.SaveStatus == constants.StatusSuccess
}

// FirstError returns the first error message, or "".
func (r Record) FirstError() string {
	if r.ErrorMessage == nil {
		return ""
	}
	return *r.ErrorMessage
}

// Err returns the error behind ErrorMessage, or nil when the record has none.
// The result matches the recorded stage kind under errors.Is.
func (r Record) Err() error {
	if r.ErrorMessage == nil {
		return nil
	}
	if r.Cause != nil {
		return r.Cause
	}
	return errors.New(*r.ErrorMessage)
}

// Clone returns a deep copy that shares no mutable state with r. Nested values
// inside ExtractedDetails are copied one level deep (lists of skills included).
func (r Record) Clone() Record {
	out := Record{JobURL: r.JobURL, Cause: r.Cause}
	out.RawHTML = cloneString(r.RawHTML)
	out.FetchStatus = cloneStatus(r.FetchStatus)
	out.ParsedContent = cloneString(r.ParsedContent)
	if r.ExtractedDetails != nil {
		out.ExtractedDetails = make(map[string]any, len(r.ExtractedDetails))
		for k, v := range r.ExtractedDetails {
			if list, ok := v.([]any); ok {
				v = append([]any(nil), list...)
			}
			out.ExtractedDetails[k] = v
		}
	}
	if r.FinalDetails != nil {
		row := *r.FinalDetails
		out.FinalDetails = &row
	}
	out.SaveStatus = cloneStatus(r.SaveStatus)
	out.TrackerID = cloneString(r.TrackerID)
	out.ErrorMessage = cloneString(r.ErrorMessage)
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStatus(p *constants.Status) *constants.Status {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
