package tools

import (
	"regexp"
	"strings"
)

// Generated code runs in a browser shell that supplies React, ReactDOM
// and the router as preloaded globals, so import and export statements
// would break execution. Sanitization is line-oriented: whole lines
// matching these patterns are dropped, everything else is kept verbatim.
// Multi-line import statements are not caught.
var strippedLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^import\s+.*from\s+['"]react['"]`),
	regexp.MustCompile(`^import\s+.*from\s+['"]react-dom`),
	regexp.MustCompile(`^import\s+.*from\s+['"]react-router`),
	regexp.MustCompile(`^import\s+.*from\s+['"]node:`),
	regexp.MustCompile(`^export\s+default\s+`),
}

var scriptFilePattern = regexp.MustCompile(`\.(?:jsx?|mjs)$`)

// isScriptFile reports whether sanitization applies to the path.
// Markup, styles and data files are never touched.
func isScriptFile(path string) bool {
	return scriptFilePattern.MatchString(path)
}

// sanitizeForBrowser strips module syntax that the browser shell cannot
// execute, preserving all other lines in their original order
func sanitizeForBrowser(content string) string {
	lines := strings.Split(content, "\n")
	filtered := lines[:0]

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if matchesStrippedPattern(trimmed) {
			continue
		}
		filtered = append(filtered, line)
	}

	return strings.Join(filtered, "\n")
}

func matchesStrippedPattern(trimmed string) bool {
	for _, pattern := range strippedLinePatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}
