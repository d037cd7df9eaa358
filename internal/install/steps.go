package install

import (
	"errors"
	"fmt"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Step names a stage of the install or rollback sequence.
type Step string

// Steps in execution order. Backup and preserve never fail an install; their
// problems surface as warnings.
const (
	StepResolve       Step = "resolve"
	StepPrerequisites Step = "prerequisites"
	StepBackup        Step = "backup"
	StepDownload      Step = "download"
	StepExtract       Step = "extract"
	StepPreserve      Step = "preserve"
	StepWrappers      Step = "wrappers"
	StepVerify        Step = "verify"
	StepHistory       Step = "history"
	StepRestore       Step = "restore"
)

var stepMessages = map[Step]string{
	StepResolve:       messages.InstallResolveFailedFmt,
	StepPrerequisites: messages.InstallPrerequisitesFailedFmt,
	StepDownload:      messages.InstallDownloadFailedFmt,
	StepExtract:       messages.InstallExtractFailedFmt,
	StepWrappers:      messages.InstallWrappersFailedFmt,
	StepVerify:        messages.InstallVerifyFailedFmt,
	StepHistory:       messages.InstallHistoryFailedFmt,
	StepRestore:       messages.InstallRestoreFailedFmt,
}

// StepError is a terminal failure at one step. Side effects of earlier steps
// are left in place.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	if format, ok := stepMessages[e.Step]; ok {
		return fmt.Sprintf(format, e.Err)
	}
	return fmt.Sprintf(messages.InstallStepFailedFmt, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step that produced err, if err is a StepError.
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}

func stepError(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}
