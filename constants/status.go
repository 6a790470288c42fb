package constants

// Status is the terminal marker a stage writes for its own step (fetch, save).
type Status string

// Stable values (exposed over the API and in reports).
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// OutcomeStatus is the per-URL status of a batch run.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success" // save_status == success
	OutcomeFailed  OutcomeStatus = "failed"  // pipeline finished without a saved row
	OutcomeError   OutcomeStatus = "error"   // the run itself faulted
)

// StageName identifies one of the five fixed pipeline stages.
type StageName string

const (
	StageFetch   StageName = "fetch"
	StageParse   StageName = "parse"
	StageExtract StageName = "extract"
	StagePrepare StageName = "prepare"
	StageSave    StageName = "save"
)

// StageOrder is the fixed execution order of the pipeline.
var StageOrder = []StageName{StageFetch, StageParse, StageExtract, StagePrepare, StageSave}
