package reasoning

// Stage is a state of the reasoning pipeline.
type Stage string

const (
	StageAnalyzed    Stage = "analyzed"
	StageRetrieved   Stage = "retrieved"
	StageMined       Stage = "mined"
	StageSelected    Stage = "selected"
	StageModeDecided Stage = "mode_decided"
	StageNarrated    Stage = "narrated"
	StageFinalized   Stage = "finalized"
)

// Observer is told about every stage a request enters, in order. It runs
// on the reasoning goroutine and should return quickly.
type Observer func(Stage)
