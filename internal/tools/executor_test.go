package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hession/protomate/internal/memory"
)

// dirResolver maps projects to plain subdirectories for tests
type dirResolver struct {
	root string
}

func (r *dirResolver) Resolve(projectID, relPath string) (string, error) {
	return filepath.Join(r.root, projectID, relPath), nil
}

func setupTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	tmpDir := t.TempDir()
	resolver := &dirResolver{root: filepath.Join(tmpDir, "projects")}
	store := memory.NewStore(filepath.Join(tmpDir, "data"), resolver)
	return NewExecutor(resolver, store), tmpDir
}

func rawInput(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestExecuteUnknownTool(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	result := exec.ExecuteToolCall("launch_rocket", rawInput(t, map[string]string{}), "proj-1")
	if result != "Unknown tool: launch_rocket" {
		t.Errorf("Unexpected result: %q", result)
	}
}

func TestWriteFile(t *testing.T) {
	exec, tmpDir := setupTestExecutor(t)

	input := rawInput(t, WriteFileInput{Path: "src/App.css", Content: "body { margin: 0; }"})
	result := exec.ExecuteToolCall("write_file", input, "proj-1")
	if result != "Successfully wrote src/App.css" {
		t.Errorf("Unexpected result: %q", result)
	}

	// Intermediate directories are created
	data, err := os.ReadFile(filepath.Join(tmpDir, "projects", "proj-1", "src", "App.css"))
	if err != nil {
		t.Fatalf("Failed to read written file: %v", err)
	}
	if string(data) != "body { margin: 0; }" {
		t.Errorf("Content mismatch: %q", data)
	}
}

func TestWriteFileSanitizesScripts(t *testing.T) {
	exec, tmpDir := setupTestExecutor(t)

	content := strings.Join([]string{
		`import React from 'react';`,
		`function App() {`,
		`  return <div>hi</div>;`,
		`}`,
	}, "\n")

	input := rawInput(t, WriteFileInput{Path: "App.jsx", Content: content})
	exec.ExecuteToolCall("write_file", input, "proj-1")

	data, err := os.ReadFile(filepath.Join(tmpDir, "projects", "proj-1", "App.jsx"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "import React") {
		t.Errorf("React import should have been stripped: %q", data)
	}
	if !strings.Contains(string(data), "function App()") {
		t.Errorf("Function body should survive: %q", data)
	}
}

func TestWriteFileLeavesNonScriptsAlone(t *testing.T) {
	exec, tmpDir := setupTestExecutor(t)

	// A css file containing an import-looking line stays untouched
	content := `import url from 'react' stylesheet`
	input := rawInput(t, WriteFileInput{Path: "notes.css", Content: content})
	exec.ExecuteToolCall("write_file", input, "proj-1")

	data, err := os.ReadFile(filepath.Join(tmpDir, "projects", "proj-1", "notes.css"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("Non-script file was modified: %q", data)
	}
}

func TestWriteFileMissingPath(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	result := exec.ExecuteToolCall("write_file", rawInput(t, WriteFileInput{Content: "x"}), "proj-1")
	if !strings.HasPrefix(result, "Error executing write_file:") {
		t.Errorf("Expected error string, got %q", result)
	}
}

func TestReadFile(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	exec.ExecuteToolCall("write_file", rawInput(t, WriteFileInput{Path: "readme.md", Content: "hello"}), "proj-1")

	result := exec.ExecuteToolCall("read_file", rawInput(t, ReadFileInput{Path: "readme.md"}), "proj-1")
	if result != "hello" {
		t.Errorf("Unexpected content: %q", result)
	}
}

func TestReadFileNotFound(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	result := exec.ExecuteToolCall("read_file", rawInput(t, ReadFileInput{Path: "missing.txt"}), "proj-1")
	if result != "File not found: missing.txt" {
		t.Errorf("Unexpected result: %q", result)
	}
}

func TestSaveAndRecallMemory(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	result := exec.ExecuteToolCall("save_memory",
		rawInput(t, SaveMemoryInput{Content: "Prefers dark themes", Category: "preference"}), "proj-1")
	if result != `Saved to memory (preference): "Prefers dark themes"` {
		t.Errorf("Unexpected save result: %q", result)
	}

	result = exec.ExecuteToolCall("recall_memory", rawInput(t, RecallMemoryInput{Query: "dark"}), "proj-1")
	if !strings.HasPrefix(result, "Found 1 memories:") {
		t.Errorf("Unexpected recall result: %q", result)
	}
	if !strings.Contains(result, "- [preference] Prefers dark themes") {
		t.Errorf("Missing entry line: %q", result)
	}
}

func TestRecallMemoryNoMatches(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	result := exec.ExecuteToolCall("recall_memory", rawInput(t, RecallMemoryInput{Query: "nothing"}), "proj-1")
	if result != `No memories found matching "nothing"` {
		t.Errorf("Unexpected result: %q", result)
	}
}

func TestSaveMemoryMissingCategory(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	result := exec.ExecuteToolCall("save_memory", rawInput(t, SaveMemoryInput{Content: "x"}), "proj-1")
	if !strings.HasPrefix(result, "Error executing save_memory:") {
		t.Errorf("Expected error string, got %q", result)
	}
}

func TestMalformedInput(t *testing.T) {
	exec, _ := setupTestExecutor(t)

	result := exec.ExecuteToolCall("write_file", json.RawMessage(`{not json`), "proj-1")
	if !strings.HasPrefix(result, "Error executing write_file:") {
		t.Errorf("Expected error string, got %q", result)
	}
}

func TestDeclarations(t *testing.T) {
	decls := Declarations()
	if len(decls) != 4 {
		t.Fatalf("Expected 4 tool declarations, got %d", len(decls))
	}

	names := map[string]bool{}
	for _, d := range decls {
		names[d.Name] = true
		if d.Description == "" {
			t.Errorf("Tool %s has no description", d.Name)
		}
		if d.InputSchema == nil {
			t.Errorf("Tool %s has no input schema", d.Name)
		}
	}
	for _, want := range []string{"write_file", "read_file", "save_memory", "recall_memory"} {
		if !names[want] {
			t.Errorf("Missing tool declaration: %s", want)
		}
	}
}
