package pipeline

// Stage names used in logs, metrics and the --mode flag.
const (
	StageFaculty  = "faculty"
	StageResearch = "research"
	StageClassify = "classify"
	StageRankings = "rankings"
)

// Table labels.
const (
	tableFaculty = "faculty"
	tableOutputs = "research_outputs"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)
