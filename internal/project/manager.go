package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager owns the prototype sandbox directories, one per project.
// All file access for a project goes through Resolve so generated code
// can never write outside its own directory.
type Manager struct {
	rootDir string
}

// NewManager creates a sandbox manager rooted at rootDir
func NewManager(rootDir string) (*Manager, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("project root directory cannot be empty")
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project root: %w", err)
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	return &Manager{rootDir: abs}, nil
}

// RootDir returns the sandbox root
func (m *Manager) RootDir() string {
	return m.rootDir
}

// Dir returns the directory of a project
func (m *Manager) Dir(projectID string) string {
	return filepath.Join(m.rootDir, projectID)
}

// Resolve maps a project-relative path to an absolute path inside the
// project's sandbox. Paths that escape the sandbox are rejected.
func (m *Manager) Resolve(projectID, relPath string) (string, error) {
	if projectID == "" {
		return "", fmt.Errorf("project id cannot be empty")
	}
	if strings.Contains(projectID, "/") || strings.Contains(projectID, "\\") || projectID == ".." {
		return "", fmt.Errorf("invalid project id: %s", projectID)
	}

	projectDir := m.Dir(projectID)
	full := filepath.Join(projectDir, relPath)

	// filepath.Join cleans the path, so any ".." that remains escaped the sandbox
	if full != projectDir && !strings.HasPrefix(full, projectDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project sandbox: %s", relPath)
	}

	return full, nil
}

// indexHTML is the static shell every prototype starts from. The view
// library and Tailwind arrive as CDN globals; app.jsx is transpiled
// in-browser by Babel Standalone.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Prototype</title>
    <script src="https://unpkg.com/react@18/umd/react.development.js" crossorigin></script>
    <script src="https://unpkg.com/react-dom@18/umd/react-dom.development.js" crossorigin></script>
    <script src="https://unpkg.com/@babel/standalone/babel.min.js"></script>
    <script src="https://cdn.tailwindcss.com"></script>
  </head>
  <body>
    <div id="root"></div>
    <script type="text/babel" data-type="module" src="/app.jsx"></script>
  </body>
</html>
`

const placeholderAppJSX = `const { useState, useEffect } = React;

function App() {
  return (
    <div className="min-h-screen bg-gray-100 flex items-center justify-center">
      <div className="text-center">
        <h1 className="text-4xl font-bold text-gray-900 mb-4">
          Welcome to Your Prototype
        </h1>
        <p className="text-gray-600">
          The AI agent will generate your interface here
        </p>
      </div>
    </div>
  );
}

ReactDOM.createRoot(document.getElementById("root")).render(<App />);
`

// Scaffold creates a project directory with the static shell and a
// placeholder app.jsx
func (m *Manager) Scaffold(projectID string) error {
	dir := m.Dir(projectID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0644); err != nil {
		return fmt.Errorf("failed to write index.html: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.jsx"), []byte(placeholderAppJSX), 0644); err != nil {
		return fmt.Errorf("failed to write app.jsx: %w", err)
	}

	return nil
}
