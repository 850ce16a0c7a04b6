package prompt

import (
	"strings"
	"testing"

	"github.com/hession/protomate/internal/memory"
)

func TestSystemPromptDeterministic(t *testing.T) {
	entries := []memory.GlobalMemoryEntry{
		{Content: "Prefers dark themes", Category: "preference"},
		{Content: "Rounded corners", Category: "style"},
	}

	a := SystemPrompt(ModeRapidPrototype, "proj-1", "built a dashboard", []string{"uses Tailwind"}, entries)
	b := SystemPrompt(ModeRapidPrototype, "proj-1", "built a dashboard", []string{"uses Tailwind"}, entries)

	if a != b {
		t.Error("Identical inputs must produce identical prompts")
	}
}

func TestSystemPromptContainsBaseSections(t *testing.T) {
	p := SystemPrompt(ModeRapidPrototype, "proj-1", "", nil, nil)

	for _, want := range []string{
		"## Runtime Environment",
		"## CRITICAL RULES",
		"## Current Project",
		"Project ID: proj-1",
		"Mode: rapid-prototype",
		"**Rapid Prototype Mode**",
		"## Response Style",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestSystemPromptOmitsEmptySections(t *testing.T) {
	p := SystemPrompt(ModeRapidPrototype, "proj-1", "", nil, nil)

	for _, absent := range []string{
		"## Previous Session",
		"## Key Facts",
		"## Remembered Preferences",
	} {
		if strings.Contains(p, absent) {
			t.Errorf("Prompt should not contain %q without data", absent)
		}
	}
}

func TestSystemPromptUnknownMode(t *testing.T) {
	p := SystemPrompt("freestyle", "proj-1", "", nil, nil)

	if !strings.Contains(p, "Mode: freestyle") {
		t.Error("Unknown mode should still be named in the project block")
	}
	if strings.Contains(p, "Mode**") {
		t.Error("Unknown mode should contribute no preset block")
	}
}

func TestSystemPromptModeBlocks(t *testing.T) {
	cases := []struct {
		mode string
		want string
	}{
		{ModeMobileFirst, "**Mobile-First Mode**"},
		{ModeDataHeavy, "**Data-Heavy Mode**"},
		{ModePresentation, "**Presentation Mode**"},
	}

	for _, c := range cases {
		p := SystemPrompt(c.mode, "proj-1", "", nil, nil)
		if !strings.Contains(p, c.want) {
			t.Errorf("Mode %s missing block %q", c.mode, c.want)
		}
	}
}

func TestSystemPromptMemorySections(t *testing.T) {
	entries := []memory.GlobalMemoryEntry{
		{Content: "No inline styles", Category: "constraint"},
		{Content: "Prefers dark themes", Category: "preference"},
	}

	p := SystemPrompt(ModeRapidPrototype, "proj-1", "built a dashboard", []string{"uses Tailwind"}, entries)

	if !strings.Contains(p, "## Previous Session\n\nbuilt a dashboard") {
		t.Error("Summary section missing")
	}
	if !strings.Contains(p, "- uses Tailwind") {
		t.Error("Key facts section missing")
	}
	if !strings.Contains(p, "### preference\n- Prefers dark themes") {
		t.Error("Preference group missing")
	}
	if !strings.Contains(p, "### constraint\n- No inline styles") {
		t.Error("Constraint group missing")
	}

	// Categories render in fixed order regardless of entry order
	if strings.Index(p, "### preference") > strings.Index(p, "### constraint") {
		t.Error("Preference group should come before constraint group")
	}
}

func TestIsKnownMode(t *testing.T) {
	for _, mode := range Modes() {
		if !IsKnownMode(mode) {
			t.Errorf("Mode %s should be known", mode)
		}
	}
	if IsKnownMode("freestyle") {
		t.Error("Unexpected known mode")
	}
}
