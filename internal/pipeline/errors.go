package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when Process is called without a document path.
var ErrInvalidInput = errors.New("invalid pipeline input")

// Stage names used in PipelineError.
const (
	StagePrepare   = "prepare"
	StageRecognize = "recognize"
	StageExtract   = "extract"
	StageNormalize = "normalize"
)

// PipelineError reports which stage of a run failed. The underlying error
// keeps its own sentinel, so errors.Is works across packages.
type PipelineError struct {
	Op    string
	Stage string
	RunID string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("pipeline: %s failed at %s: %v", e.Op, e.Stage, e.Err)
	}
	return fmt.Sprintf("pipeline: %s failed: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newPipelineError(op, stage, runID string, err error) *PipelineError {
	return &PipelineError{Op: op, Stage: stage, RunID: runID, Err: err}
}
