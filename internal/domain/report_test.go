package domain

import (
	"strings"
	"testing"
)

func TestReportSummaryPassed(t *testing.T) {
	report := ValidationReport{Subject: "Foo", TestedCount: 7}
	if !report.Passed() {
		t.Fatal("report with no failures should pass")
	}
	if got := report.Summary(); got != "validation passed (7 instances tested)" {
		t.Fatalf("summary = %q", got)
	}
}

func TestReportSummaryWithFailures(t *testing.T) {
	report := ValidationReport{
		Subject:     "Foo",
		TestedCount: 5,
		Failures: []ValidationFailure{
			{SubjectID: "assets/a.json", Message: "bad config", Class: FailureClassCheck},
			{SubjectID: "assets/b.json", Message: "Validate not found for Bar on assets/b.json.", Class: FailureClassContract},
		},
	}
	if got := report.Summary(); got != "2 failures from 5 instances" {
		t.Fatalf("summary = %q", got)
	}
	lines := report.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[0] != "assets/a.json: bad config" {
		t.Fatalf("line = %q", lines[0])
	}
	if !strings.Contains(report.String(), "assets/b.json: Validate not found") {
		t.Fatalf("String() missing failure line: %q", report.String())
	}
}
