package domain

import (
	"fmt"
	"strings"
	"time"
)

// FailureClass distinguishes normal check failures from process-level
// problems encountered while checking one instance.
type FailureClass string

// FailureClass values. FailureClassCheck covers required-field and validity
// contract failures; FailureClassContract marks an instance whose type does
// not implement the validity contract at all.
const (
	FailureClassCheck    FailureClass = "check"
	FailureClassContract FailureClass = "contract"
)

// ValidationFailure records one problem found on one subject instance
// during a validation run.
type ValidationFailure struct {
	SubjectID string
	Message   string
	Class     FailureClass
}

// ValidationReport aggregates the outcome of one validation run. TestedCount
// counts instances for which at least one check was attempted; SkippedCount
// counts enumerated instances outside the subject type.
type ValidationReport struct {
	Subject      string
	Failures     []ValidationFailure
	TestedCount  int
	SkippedCount int
	StartedAt    time.Time
}

// Passed reports whether the run found no failures.
func (r ValidationReport) Passed() bool {
	return len(r.Failures) == 0
}

// Summary renders the one-line aggregate outcome.
func (r ValidationReport) Summary() string {
	if r.Passed() {
		return fmt.Sprintf("validation passed (%d instances tested)", r.TestedCount)
	}
	return fmt.Sprintf("%d failures from %d instances", len(r.Failures), r.TestedCount)
}

// Lines renders one line per failure in collection order.
func (r ValidationReport) Lines() []string {
	lines := make([]string, 0, len(r.Failures))
	for _, failure := range r.Failures {
		lines = append(lines, fmt.Sprintf("%s: %s", failure.SubjectID, failure.Message))
	}
	return lines
}

// String renders the full report for logs and dialogs.
func (r ValidationReport) String() string {
	if r.Passed() {
		return r.Summary()
	}
	return r.Summary() + "\n" + strings.Join(r.Lines(), "\n")
}
