package validate

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/redphin/punchlist/internal/domain"
)

// validKinds stores the subject kinds a run accepts.
var validKinds = []SubjectKind{SubjectKindComponent, SubjectKindAsset}

// Options tunes engine behavior.
type Options struct {
	// SkipContractAfterRequired stops checking an instance once the
	// required-field rule has failed. Off by default: both rules run and
	// both record their failures.
	SkipContractAfterRequired bool
	Logger                    *log.Logger
}

// Clock returns the current time.
type Clock func() time.Time

// Engine runs validation scans. Scans are strictly sequential; one call
// blocks until every enumerated instance has been checked.
type Engine struct {
	finder             Finder
	clock              Clock
	logger             *log.Logger
	skipContractOnMiss bool
}

// New constructs an engine over the given instance finder.
func New(finder Finder, clock Clock, opts Options) *Engine {
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		finder:             finder,
		clock:              clock,
		logger:             logger,
		skipContractOnMiss: opts.SkipContractAfterRequired,
	}
}

// Run validates every live instance of the subject type within its scope and
// returns the aggregate report. Configuration problems (unresolved subject,
// unsupported kind, missing finder) fail before any enumeration; per-instance
// problems are collected into the report and never abort the scan.
func (e *Engine) Run(ctx context.Context, subject Subject) (domain.ValidationReport, error) {
	subject.Name = strings.TrimSpace(subject.Name)
	if subject.Name == "" {
		return domain.ValidationReport{}, ErrSubjectUnresolved
	}
	if !slices.Contains(validKinds, subject.Kind) {
		return domain.ValidationReport{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, subject.Kind)
	}
	if e.finder == nil {
		return domain.ValidationReport{}, ErrNoFinder
	}

	instances, err := e.finder.FindInstances(ctx, subject)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("enumerate %s instances: %w", subject.Name, err)
	}

	report := domain.ValidationReport{
		Subject:   subject.Name,
		StartedAt: e.clock().UTC(),
	}
	for i, instance := range instances {
		e.logger.Debug("checking instance",
			"subject", subject.Name,
			"instance", instance.ID,
			"progress", fmt.Sprintf("%d/%d", i+1, len(instances)),
		)
		checked := e.checkInstance(instance, &report)
		if checked {
			report.TestedCount++
		} else {
			report.SkippedCount++
		}
	}

	e.logger.Info("validation run finished",
		"subject", subject.Name,
		"tested", report.TestedCount,
		"skipped", report.SkippedCount,
		"failures", len(report.Failures),
	)
	return report, nil
}

// checkInstance runs both rules on one instance, appending failures to the
// report. It reports whether at least one check was attempted.
func (e *Engine) checkInstance(instance Instance, report *domain.ValidationReport) bool {
	if instance.Value == nil {
		return false
	}

	contract, hasContract := instance.Value.(Validatable)
	messages, applicable := requiredFieldFailures(instance.Value)
	if !applicable && !hasContract {
		// The enumerated value lacks the subject shape entirely.
		return false
	}

	for _, message := range messages {
		report.Failures = append(report.Failures, domain.ValidationFailure{
			SubjectID: instance.ID,
			Message:   message,
			Class:     domain.FailureClassCheck,
		})
	}

	if len(messages) > 0 && e.skipContractOnMiss {
		return true
	}

	if !hasContract {
		report.Failures = append(report.Failures, domain.ValidationFailure{
			SubjectID: instance.ID,
			Message:   fmt.Sprintf("Validate not found for %s on %s.", typeName(instance.Value), instance.ID),
			Class:     domain.FailureClassContract,
		})
		return true
	}

	passed, message := contract.Validate()
	if !passed {
		message = strings.TrimSpace(message)
		if message == "" {
			message = synthesizedMessage()
		}
		report.Failures = append(report.Failures, domain.ValidationFailure{
			SubjectID: instance.ID,
			Message:   message,
			Class:     domain.FailureClassCheck,
		})
	}
	return true
}

// synthesizedMessage builds a failure message for contracts that reported
// failure without an explanation, embedding the call stack so the failure
// stays actionable.
func synthesizedMessage() string {
	return "validity check failed without a message; captured stack:\n" + string(debug.Stack())
}

// typeName names an instance's concrete type for contract-missing messages.
func typeName(value any) string {
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
