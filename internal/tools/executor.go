package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hession/protomate/internal/logger"
	"github.com/hession/protomate/internal/memory"
)

// Executor runs tool calls against a project-scoped filesystem sandbox.
// Its results are always strings: failures are folded into the result
// text so the model can read them and react on its next turn.
type Executor struct {
	resolver memory.PathResolver
	memory   *memory.Store
}

// NewExecutor creates a tool executor
func NewExecutor(resolver memory.PathResolver, store *memory.Store) *Executor {
	return &Executor{resolver: resolver, memory: store}
}

// ExecuteToolCall executes a named tool against the given project.
// It never fails outward: internal errors become an error-description
// string, unknown names a fixed sentinel.
func (e *Executor) ExecuteToolCall(name string, input json.RawMessage, projectID string) string {
	result, err := e.dispatch(name, input, projectID)
	if err != nil {
		logger.Warn("tool %s failed: %v", name, err)
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return result
}

func (e *Executor) dispatch(name string, input json.RawMessage, projectID string) (string, error) {
	switch name {
	case "write_file":
		var in WriteFileInput
		if err := decodeInput(input, &in); err != nil {
			return "", err
		}
		return e.writeFile(projectID, in)

	case "read_file":
		var in ReadFileInput
		if err := decodeInput(input, &in); err != nil {
			return "", err
		}
		return e.readFile(projectID, in)

	case "save_memory":
		var in SaveMemoryInput
		if err := decodeInput(input, &in); err != nil {
			return "", err
		}
		return e.saveMemory(projectID, in)

	case "recall_memory":
		var in RecallMemoryInput
		if err := decodeInput(input, &in); err != nil {
			return "", err
		}
		return e.recallMemory(in)

	default:
		return fmt.Sprintf("Unknown tool: %s", name), nil
	}
}

func decodeInput(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing tool input")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse tool input: %w", err)
	}
	return nil
}

// writeFile writes a file inside the project sandbox, creating
// intermediate directories and sanitizing script files on the way
func (e *Executor) writeFile(projectID string, in WriteFileInput) (string, error) {
	if in.Path == "" {
		return "", fmt.Errorf("missing required parameter: path")
	}

	fullPath, err := e.resolver.Resolve(projectID, in.Path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	content := in.Content
	if isScriptFile(in.Path) {
		content = sanitizeForBrowser(content)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("Successfully wrote %s", in.Path), nil
}

// readFile returns a file's contents, or a "not found" sentinel string
// for missing paths so the model sees the miss as ordinary data
func (e *Executor) readFile(projectID string, in ReadFileInput) (string, error) {
	if in.Path == "" {
		return "", fmt.Errorf("missing required parameter: path")
	}

	fullPath, err := e.resolver.Resolve(projectID, in.Path)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("File not found: %s", in.Path), nil
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return string(content), nil
}

func (e *Executor) saveMemory(projectID string, in SaveMemoryInput) (string, error) {
	if in.Content == "" {
		return "", fmt.Errorf("missing required parameter: content")
	}
	if in.Category == "" {
		return "", fmt.Errorf("missing required parameter: category")
	}

	entry, err := e.memory.AddGlobalMemoryEntry(in.Content, in.Category, projectID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Saved to memory (%s): %q", entry.Category, entry.Content), nil
}

func (e *Executor) recallMemory(in RecallMemoryInput) (string, error) {
	if in.Query == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}

	results := e.memory.SearchGlobalMemory(in.Query)
	if len(results) == 0 {
		return fmt.Sprintf("No memories found matching %q", in.Query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories:\n", len(results))
	for _, entry := range results {
		fmt.Fprintf(&b, "- [%s] %s\n", entry.Category, entry.Content)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
