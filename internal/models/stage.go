package models

// Stage is a state of the pipeline run state machine.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageReconstructing Stage = "reconstructing"
	StageChunking       Stage = "chunking"
	StageEmbedding      Stage = "embedding"
	StageRetrieving     Stage = "retrieving"
	StageExtracting     Stage = "extracting"
	StageCompleted      Stage = "completed"
	StageFailed         Stage = "failed"
)

// Label is the human readable stage name used in progress descriptions.
func (s Stage) Label() string {
	switch s {
	case StageReconstructing:
		return "Layout reconstruction"
	case StageChunking:
		return "Chunking"
	case StageEmbedding:
		return "Embedding"
	case StageRetrieving:
		return "Retrieval"
	case StageExtracting:
		return "Extraction"
	case StageCompleted:
		return "Completed"
	case StageFailed:
		return "Failed"
	default:
		return "Idle"
	}
}

type StageStatus string

const (
	StatusActive StageStatus = "active"
	StatusDone   StageStatus = "done"
	StatusError  StageStatus = "error"
)

// StageFunc receives every state transition of a run.
type StageFunc func(stage Stage, status StageStatus, description string)
