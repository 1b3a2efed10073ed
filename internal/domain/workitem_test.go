package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNewWorkItemDefaults(t *testing.T) {
	item, err := NewWorkItem(WorkItemInput{
		ID:          "wi-1",
		DisplayName: "  Fix lighting  ",
		Priority:    -5,
	}, testNow)
	if err != nil {
		t.Fatalf("NewWorkItem: %v", err)
	}
	if item.DisplayName != "Fix lighting" {
		t.Fatalf("display name = %q", item.DisplayName)
	}
	if item.Priority != 0 {
		t.Fatalf("negative priority not clamped, got %d", item.Priority)
	}
	if item.CategoryID != DefaultCategoryID {
		t.Fatalf("unset category should fall back to default, got %q", item.CategoryID)
	}
	if !item.Active() {
		t.Fatal("fresh item should be active")
	}
}

func TestNewWorkItemRejectsBlankFields(t *testing.T) {
	if _, err := NewWorkItem(WorkItemInput{DisplayName: "x"}, testNow); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("blank id: got %v", err)
	}
	if _, err := NewWorkItem(WorkItemInput{ID: "wi-1", DisplayName: "   "}, testNow); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("blank name: got %v", err)
	}
}

func TestSetPriorityClamps(t *testing.T) {
	item, err := NewWorkItem(WorkItemInput{ID: "wi-1", DisplayName: "a"}, testNow)
	if err != nil {
		t.Fatalf("NewWorkItem: %v", err)
	}
	item.SetPriority(-1, testNow.Add(time.Minute))
	if item.Priority != 0 {
		t.Fatalf("priority = %d, want 0", item.Priority)
	}
	if !item.UpdatedAt.After(item.CreatedAt) {
		t.Fatal("UpdatedAt not stamped")
	}
}

func TestCompleteRemovesFromActiveSet(t *testing.T) {
	item, err := NewWorkItem(WorkItemInput{ID: "wi-1", DisplayName: "a"}, testNow)
	if err != nil {
		t.Fatalf("NewWorkItem: %v", err)
	}
	item.Complete(testNow)
	if item.Active() {
		t.Fatal("done item should not be active")
	}
	item.Reopen(testNow)
	if !item.Active() {
		t.Fatal("reopened item should be active")
	}
}

func TestTemplateNeverActive(t *testing.T) {
	item, err := NewWorkItem(WorkItemInput{ID: "wi-1", DisplayName: "Bug template", IsTemplate: true}, testNow)
	if err != nil {
		t.Fatalf("NewWorkItem: %v", err)
	}
	if item.Active() {
		t.Fatal("template should never be active")
	}
}
