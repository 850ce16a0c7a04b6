// Package prompt builds the system prompt for the prototyping agent.
// Composition is a pure function of its inputs so prompts are
// reproducible in tests.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hession/protomate/internal/memory"
)

// Modes the named behavioral presets. Unknown modes contribute no
// mode-specific block.
const (
	ModeRapidPrototype = "rapid-prototype"
	ModeMobileFirst    = "mobile-first"
	ModeDataHeavy      = "data-heavy"
	ModePresentation   = "presentation"
)

// categoryOrder fixed grouping order for remembered preferences
var categoryOrder = []string{"preference", "pattern", "style", "constraint"}

const basePrompt = `You are an expert UI/UX prototyping assistant. You generate interactive, high-fidelity prototypes as a single app.jsx file.

## Runtime Environment

The prototype runs in a browser via a static HTML page that loads these CDN scripts:
- **React 18** and **ReactDOM 18** as UMD globals (window.React, window.ReactDOM)
- **Babel Standalone** (transpiles JSX in-browser via <script type="text/babel">)
- **Tailwind CSS Play CDN** (all utility classes available)

## CRITICAL RULES

1. **NO imports** — React, ReactDOM are globals. Destructure what you need:
   ` + "`const { useState, useEffect, useRef, useMemo, useCallback, useContext, createContext } = React;`" + `
2. **NO TypeScript** — write plain JSX only (.jsx files)
3. **NO external packages** — everything must be self-contained. Use inline SVG for icons.
4. **Single file** — put ALL code in app.jsx. Define components in dependency order (helpers first, App last).
5. **Always end with render call**:
   ` + "`ReactDOM.createRoot(document.getElementById(\"root\")).render(<App />);`" + `
6. **NO export statements** — no ` + "`export default`" + `, no ` + "`export function`" + `, no module syntax.

## Routing (Multi-Page Apps)

For multi-page prototypes, use hash-based routing with a useHashRoute hook that reads
window.location.hash, listens for hashchange, and a Link component rendering anchor tags
with #-prefixed hrefs. Switch on the route in the App component.

## Styling

- Use **TailwindCSS utility classes** for all styling
- All Tailwind classes are available (the Play CDN includes everything)
- For custom styles, use inline styles or a <style> tag in the component

## Code Quality

- Write complete, working code — no pseudocode or placeholders
- Use semantic HTML with proper accessibility attributes
- Mobile-first responsive design using Tailwind responsive classes
- Mock data should be realistic and varied
- All interactive elements should work (buttons, forms, toggles, etc.)
- Use modern React patterns (hooks, functional components)

## Available Tools

- **write_file** — write app.jsx (or other static assets) to the prototype directory
- **read_file** — read existing files to check current state before modifying
- **save_memory** — persist a user preference or constraint for future sessions
- **recall_memory** — search previously saved preferences`

const responseStyle = `## Response Style

1. Briefly explain what you're building
2. Use write_file to generate app.jsx with all code
3. Summarize what you created
4. Suggest next steps`

// SystemPrompt composes the full system prompt from the mode, project,
// and any remembered state. Deterministic for identical inputs.
func SystemPrompt(mode, projectID, summary string, keyFacts []string, globalEntries []memory.GlobalMemoryEntry) string {
	var b strings.Builder

	b.WriteString(basePrompt)

	b.WriteString("\n\n## Current Project\n\n")
	fmt.Fprintf(&b, "Project ID: %s\nMode: %s\n", projectID, mode)

	if block := modeBlock(mode); block != "" {
		b.WriteString("\n")
		b.WriteString(block)
		b.WriteString("\n")
	}

	if summary != "" {
		b.WriteString("\n## Previous Session\n\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}

	if len(keyFacts) > 0 {
		b.WriteString("\n## Key Facts\n\n")
		for _, fact := range keyFacts {
			fmt.Fprintf(&b, "- %s\n", fact)
		}
	}

	if len(globalEntries) > 0 {
		b.WriteString("\n## Remembered Preferences\n")
		for _, category := range categoryOrder {
			var lines []string
			for _, entry := range globalEntries {
				if entry.Category == category {
					lines = append(lines, fmt.Sprintf("- %s", entry.Content))
				}
			}
			if len(lines) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n### %s\n%s\n", category, strings.Join(lines, "\n"))
		}
	}

	b.WriteString("\n")
	b.WriteString(responseStyle)

	return b.String()
}

func modeBlock(mode string) string {
	switch mode {
	case ModeRapidPrototype:
		return `**Rapid Prototype Mode**
- Prioritize speed over polish
- Minimal mock data (3-5 items)
- Simple layouts
- Desktop-first (can adjust later)`

	case ModeMobileFirst:
		return `**Mobile-First Mode**
- Design for mobile screens first
- Touch-friendly interactions
- Mobile navigation patterns (bottom tabs, hamburger menus)
- Responsive scaling to larger screens`

	case ModeDataHeavy:
		return `**Data-Heavy Mode**
- Extensive mock data (20+ items)
- Tables, charts, and data visualizations
- Filtering and search capabilities
- Pagination or infinite scroll`

	case ModePresentation:
		return `**Presentation Mode**
- High visual polish
- Smooth animations and transitions
- Marketing-style landing pages
- Hero sections, testimonials, etc.`

	default:
		return ""
	}
}

// Modes lists the known mode identifiers
func Modes() []string {
	return []string{ModeRapidPrototype, ModeMobileFirst, ModeDataHeavy, ModePresentation}
}

// IsKnownMode reports whether the mode has a behavioral preset
func IsKnownMode(mode string) bool {
	return modeBlock(mode) != ""
}
