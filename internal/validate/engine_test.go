package validate

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/redphin/punchlist/internal/domain"
)

// foo is a subject type with one required field and a configurable contract.
type foo struct {
	Bar     string `punch:"required"`
	passes  bool
	message string
}

func (f foo) Validate() (bool, string) {
	return f.passes, f.message
}

// bare has no validity contract at all.
type bare struct {
	Label string
}

type staticFinder struct {
	instances []Instance
	err       error
}

func (f staticFinder) FindInstances(_ context.Context, _ Subject) ([]Instance, error) {
	return f.instances, f.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestEngine(finder Finder, opts Options) *Engine {
	opts.Logger = quietLogger()
	clock := func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return New(finder, clock, opts)
}

func subjectFoo() Subject {
	return Subject{Name: "Foo", Kind: SubjectKindAsset, Scope: []string{"assets"}}
}

func TestRunFailsFastOnUnresolvedSubject(t *testing.T) {
	engine := newTestEngine(staticFinder{}, Options{})
	_, err := engine.Run(context.Background(), Subject{Name: "  ", Kind: SubjectKindAsset})
	if !errors.Is(err, ErrSubjectUnresolved) {
		t.Fatalf("got %v, want ErrSubjectUnresolved", err)
	}
}

func TestRunFailsFastOnUnsupportedKind(t *testing.T) {
	engine := newTestEngine(staticFinder{}, Options{})
	_, err := engine.Run(context.Background(), Subject{Name: "Foo", Kind: SubjectKind("widget")})
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("got %v, want ErrUnsupportedKind", err)
	}
}

func TestRunPropagatesFinderError(t *testing.T) {
	boom := errors.New("index offline")
	engine := newTestEngine(staticFinder{err: boom}, Options{})
	_, err := engine.Run(context.Background(), subjectFoo())
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped finder error", err)
	}
}

func TestRunEmptyScopePasses(t *testing.T) {
	engine := newTestEngine(staticFinder{}, Options{})
	report, err := engine.Run(context.Background(), subjectFoo())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Passed() || report.TestedCount != 0 || len(report.Failures) != 0 {
		t.Fatalf("empty scope report = %+v", report)
	}
}

// Five instances: #2 fails the contract with "bad config" and is missing the
// required Bar field; #4 fails the contract with an empty message. Expected:
// five tested, three failures, the empty message replaced by a stack capture.
func TestRunScenarioFiveInstances(t *testing.T) {
	finder := staticFinder{instances: []Instance{
		{Value: foo{Bar: "set", passes: true}, ID: "foo-1"},
		{Value: foo{passes: false, message: "bad config"}, ID: "foo-2"},
		{Value: foo{Bar: "set", passes: true}, ID: "foo-3"},
		{Value: foo{Bar: "set", passes: false}, ID: "foo-4"},
		{Value: foo{Bar: "set", passes: true}, ID: "foo-5"},
	}}
	engine := newTestEngine(finder, Options{})
	report, err := engine.Run(context.Background(), subjectFoo())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TestedCount != 5 {
		t.Fatalf("tested = %d, want 5", report.TestedCount)
	}
	if report.SkippedCount != 0 {
		t.Fatalf("skipped = %d, want 0", report.SkippedCount)
	}
	if len(report.Failures) != 3 {
		t.Fatalf("failures = %d, want 3: %+v", len(report.Failures), report.Failures)
	}

	first := report.Failures[0]
	if first.SubjectID != "foo-2" || first.Message != "Field Bar is required but not set." {
		t.Fatalf("first failure = %+v", first)
	}
	second := report.Failures[1]
	if second.SubjectID != "foo-2" || second.Message != "bad config" {
		t.Fatalf("second failure = %+v", second)
	}
	third := report.Failures[2]
	if third.SubjectID != "foo-4" {
		t.Fatalf("third failure = %+v", third)
	}
	if third.Message == "" || !strings.Contains(third.Message, "captured stack") {
		t.Fatalf("empty contract message not synthesized: %q", third.Message)
	}
}

func TestRunRequiredRuleIndependentOfContract(t *testing.T) {
	finder := staticFinder{instances: []Instance{
		{Value: foo{passes: true}, ID: "foo-1"},
	}}
	engine := newTestEngine(finder, Options{})
	report, err := engine.Run(context.Background(), subjectFoo())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(report.Failures))
	}
	if report.Failures[0].Message != "Field Bar is required but not set." {
		t.Fatalf("message = %q", report.Failures[0].Message)
	}
}

func TestRunSkipContractAfterRequired(t *testing.T) {
	finder := staticFinder{instances: []Instance{
		{Value: foo{passes: false, message: "bad config"}, ID: "foo-1"},
	}}
	engine := newTestEngine(finder, Options{SkipContractAfterRequired: true})
	report, err := engine.Run(context.Background(), subjectFoo())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1 (contract skipped)", len(report.Failures))
	}
	if report.TestedCount != 1 {
		t.Fatalf("tested = %d, want 1", report.TestedCount)
	}
}

func TestRunContractMissingIsErrorClass(t *testing.T) {
	finder := staticFinder{instances: []Instance{
		{Value: bare{Label: "x"}, ID: "bare-1"},
		{Value: foo{Bar: "set", passes: true}, ID: "foo-1"},
	}}
	engine := newTestEngine(finder, Options{})
	report, err := engine.Run(context.Background(), subjectFoo())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TestedCount != 2 {
		t.Fatalf("tested = %d, want 2 (missing contract still counted)", report.TestedCount)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(report.Failures))
	}
	failure := report.Failures[0]
	if failure.Class != domain.FailureClassContract {
		t.Fatalf("class = %q, want contract", failure.Class)
	}
	if failure.Message != "Validate not found for bare on bare-1." {
		t.Fatalf("message = %q", failure.Message)
	}
}

func TestRunSkipsValuesOutsideSubjectShape(t *testing.T) {
	finder := staticFinder{instances: []Instance{
		{Value: nil, ID: "nil-1"},
		{Value: 42, ID: "int-1"},
		{Value: foo{Bar: "set", passes: true}, ID: "foo-1"},
	}}
	engine := newTestEngine(finder, Options{})
	report, err := engine.Run(context.Background(), subjectFoo())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TestedCount != 1 || report.SkippedCount != 2 {
		t.Fatalf("tested = %d skipped = %d, want 1/2", report.TestedCount, report.SkippedCount)
	}
	if report.TestedCount+report.SkippedCount != 3 {
		t.Fatal("tested + skipped must equal enumerated count")
	}
}
