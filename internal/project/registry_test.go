package project

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestCreateAndGet(t *testing.T) {
	reg := setupTestRegistry(t)

	id, err := reg.Create("Task Dashboard", "rapid-prototype")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("Create should return a non-empty id")
	}

	rec, err := reg.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec == nil {
		t.Fatal("Expected a record, got nil")
	}
	if rec.Name != "Task Dashboard" || rec.Mode != "rapid-prototype" {
		t.Errorf("Record mismatch: %+v", rec)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Error("Timestamps should be set")
	}
}

func TestGetMissing(t *testing.T) {
	reg := setupTestRegistry(t)

	rec, err := reg.Get("not-exist")
	if err != nil {
		t.Fatalf("Getting a missing project should not error: %v", err)
	}
	if rec != nil {
		t.Error("Missing project should return nil")
	}
}

func TestGetLatest(t *testing.T) {
	reg := setupTestRegistry(t)

	// Empty registry
	rec, err := reg.GetLatest()
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if rec != nil {
		t.Error("Empty registry should yield nil")
	}

	first, _ := reg.Create("First", "rapid-prototype")
	time.Sleep(10 * time.Millisecond)
	second, _ := reg.Create("Second", "mobile-first")

	rec, err = reg.GetLatest()
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if rec == nil || rec.ID != second {
		t.Errorf("Expected latest project %s, got %+v", second, rec)
	}

	// Touching the older project makes it the latest
	time.Sleep(10 * time.Millisecond)
	if err := reg.Touch(first); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	rec, _ = reg.GetLatest()
	if rec == nil || rec.ID != first {
		t.Errorf("Expected touched project %s, got %+v", first, rec)
	}
}

func TestList(t *testing.T) {
	reg := setupTestRegistry(t)

	reg.Create("One", "rapid-prototype")
	time.Sleep(10 * time.Millisecond)
	reg.Create("Two", "data-heavy")

	records, err := reg.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	// Newest first
	if records[0].Name != "Two" || records[1].Name != "One" {
		t.Errorf("Unexpected order: %s, %s", records[0].Name, records[1].Name)
	}
}

func TestRename(t *testing.T) {
	reg := setupTestRegistry(t)

	id, _ := reg.Create("Untitled", "rapid-prototype")

	if err := reg.Rename(id, "Login Flow"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	rec, _ := reg.Get(id)
	if rec.Name != "Login Flow" {
		t.Errorf("Expected renamed record, got %q", rec.Name)
	}
}
