package tools

import "github.com/hession/protomate/internal/llm"

// Typed inputs, one per declared tool. Raw tool_use payloads are decoded
// into these before dispatch so field access is checked at compile time.

// WriteFileInput input for write_file
type WriteFileInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ReadFileInput input for read_file
type ReadFileInput struct {
	Path string `json:"path"`
}

// SaveMemoryInput input for save_memory
type SaveMemoryInput struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

// RecallMemoryInput input for recall_memory
type RecallMemoryInput struct {
	Query string `json:"query"`
}

// Declarations returns the agent-invocable capability surface as tool
// declarations for the model
func Declarations() []llm.Tool {
	return []llm.Tool{
		{
			Name: "write_file",
			Description: "Write or update a file in the current prototype project. " +
				"Primarily used to write app.jsx with all components and rendering logic.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": `Relative path in the prototype project (e.g., "app.jsx")`,
					},
					"content": map[string]any{
						"type":        "string",
						"description": "Complete file content",
					},
				},
				"required": []string{"path", "content"},
			},
		},
		{
			Name: "read_file",
			Description: "Read the contents of a file in the current prototype project. " +
				"Use this to check existing code before modifying it.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": `Relative path to read (e.g., "app.jsx")`,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "save_memory",
			Description: "Save an important fact or user preference to persistent memory. " +
				"Use this when the user expresses a preference, style choice, design pattern, " +
				"or constraint that should be remembered across sessions. " +
				`Examples: "User prefers dark themes", "Always use Inter font", "Components should have rounded corners".`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{
						"type":        "string",
						"description": "The fact or preference to remember",
					},
					"category": map[string]any{
						"type": "string",
						"enum": []string{"preference", "pattern", "style", "constraint"},
						"description": "Category: preference (user likes/dislikes), pattern (code patterns to follow), " +
							"style (visual/design style), constraint (technical limitations)",
					},
				},
				"required": []string{"content", "category"},
			},
		},
		{
			Name: "recall_memory",
			Description: "Search saved memories for relevant information. " +
				"Use this at the start of a new session or when you need to recall user preferences and past decisions.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": `Search query to find relevant memories (e.g., "color", "font", "layout")`,
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
