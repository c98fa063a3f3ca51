package pipeline

import (
	"errors"
	"fmt"
)

const (
	packageStageErrorTemplateConstant  = "%s %s: %v"
	stageErrorTemplateConstant         = "%s: %v"
	synchronizerMissingMessageConstant = "synchronizer not configured"
	builderMissingMessageConstant      = "builder not configured"
	cleanerMissingMessageConstant      = "cleaner not configured"
	reporterMissingMessageConstant     = "reporter not configured"
)

// Stage names a step of the run.
type Stage string

// Pipeline stages in execution order.
const (
	StageSynchronize Stage = "synchronize"
	StageBuild       Stage = "build"
	StageCleanup     Stage = "cleanup"
	StageReport      Stage = "report"
)

var (
	// ErrSynchronizerNotConfigured indicates the runner was created without a synchronizer.
	ErrSynchronizerNotConfigured = errors.New(synchronizerMissingMessageConstant)
	// ErrBuilderNotConfigured indicates the runner was created without a builder.
	ErrBuilderNotConfigured = errors.New(builderMissingMessageConstant)
	// ErrCleanerNotConfigured indicates the runner was created without a cleanup service.
	ErrCleanerNotConfigured = errors.New(cleanerMissingMessageConstant)
	// ErrReporterNotConfigured indicates the runner was created without a reporter.
	ErrReporterNotConfigured = errors.New(reporterMissingMessageConstant)
)

// StageError attributes a fatal failure to a stage and, when applicable, a package.
type StageError struct {
	Stage       Stage
	PackageName string
	Cause       error
}

// Error names the stage, the package and the cause.
func (stageError StageError) Error() string {
	if len(stageError.PackageName) == 0 {
		return fmt.Sprintf(stageErrorTemplateConstant, stageError.Stage, stageError.Cause)
	}
	return fmt.Sprintf(packageStageErrorTemplateConstant, stageError.Stage, stageError.PackageName, stageError.Cause)
}

// Unwrap exposes the cause.
func (stageError StageError) Unwrap() error {
	return stageError.Cause
}
