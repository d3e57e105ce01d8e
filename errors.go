package testenv

import (
	"fmt"

	"github.com/ociswap/scrypto-testenv/types"
)

// NotFoundError marks lookup failures for keys that were never registered.
type NotFoundError interface {
	isNotFoundError()
}

// PackageNotFoundError indicates that no package was published under the
// requested name in this environment.
type PackageNotFoundError struct {
	Name string
}

func (e *PackageNotFoundError) isNotFoundError() {}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("could not find package %q", e.Name)
}

// LabelNotFoundError indicates that no instruction was registered under the
// requested label before the manifest was executed.
type LabelNotFoundError struct {
	Label string
}

func (e *LabelNotFoundError) isNotFoundError() {}

func (e *LabelNotFoundError) Error() string {
	return fmt.Sprintf("could not find instruction label %q", e.Label)
}

// CommitOutcomeMismatchError indicates that an execution produced a commit
// outcome of a different class than the test expected. It carries the full
// outcome for postmortem inspection.
type CommitOutcomeMismatchError struct {
	Expected types.OutcomeClass
	Actual   types.OutcomeClass
	Outcome  *types.Outcome
}

func (e *CommitOutcomeMismatchError) Error() string {
	message := fmt.Sprintf("expected %s outcome, got %s", e.Expected, e.Actual)
	if e.Outcome != nil && e.Outcome.ErrorMessage != "" {
		message += ": " + e.Outcome.ErrorMessage
	}
	return message
}
