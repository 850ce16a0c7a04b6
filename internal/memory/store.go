package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hession/protomate/internal/llm"
	"github.com/hession/protomate/internal/logger"
)

const (
	// MaxPersistedTurns max conversation turns persisted per project.
	// Older turns are trimmed; the project summary covers them instead.
	MaxPersistedTurns = 50

	// MaxGlobalEntries cap on the cross-project preference ledger
	MaxGlobalEntries = 100

	memoryDir         = "memory"
	projectMemoryFile = "memory.json"
	globalMemoryFile  = "global-memory.json"
)

// ChatMessage display-oriented message, distinct from the model-facing turn
type ChatMessage struct {
	ID          string            `json:"id"`
	Role        string            `json:"role"` // "user" | "assistant"
	Content     string            `json:"content"`
	Timestamp   int64             `json:"timestamp"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	ToolCalls   []ToolCallSummary `json:"toolCalls,omitempty"`
	IsStreaming bool              `json:"isStreaming,omitempty"`
}

// Attachment metadata for an image or file attached to a message
type Attachment struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "image" | "file"
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// ToolCallSummary display record of a tool invocation
type ToolCallSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"` // "pending" | "success" | "error"
	Result string `json:"result,omitempty"`
}

// ProjectMemory persisted conversation state for one project
type ProjectMemory struct {
	ProjectID           string        `json:"projectId"`
	ConversationHistory []llm.Turn    `json:"conversationHistory"`
	ChatMessages        []ChatMessage `json:"chatMessages"`
	Summary             *string       `json:"summary"`
	KeyFacts            []string      `json:"keyFacts"`
	LastUpdated         int64         `json:"lastUpdated"`
}

// GlobalMemoryEntry one remembered fact in the cross-project ledger
type GlobalMemoryEntry struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Category  string `json:"category"` // preference | pattern | style | constraint
	CreatedAt int64  `json:"createdAt"`
	Source    string `json:"source"` // originating project id
}

// GlobalMemory the cross-project preference ledger
type GlobalMemory struct {
	Entries     []GlobalMemoryEntry `json:"entries"`
	LastUpdated int64               `json:"lastUpdated"`
}

// PathResolver maps a project-relative path into the project's sandbox
type PathResolver interface {
	Resolve(projectID, relPath string) (string, error)
}

// Store file-backed persistence for project and global memory
type Store struct {
	dataDir  string
	resolver PathResolver
}

// NewStore creates a memory store. Global memory lives under dataDir;
// project memory lives inside each project's sandbox via the resolver.
func NewStore(dataDir string, resolver PathResolver) *Store {
	return &Store{dataDir: dataDir, resolver: resolver}
}

// ---- Project memory ----

func (s *Store) projectMemoryPath(projectID string) (string, error) {
	return s.resolver.Resolve(projectID, filepath.Join(memoryDir, projectMemoryFile))
}

// LoadProjectMemory returns the persisted record for a project, or nil
// if none exists or it cannot be parsed
func (s *Store) LoadProjectMemory(projectID string) *ProjectMemory {
	path, err := s.projectMemoryPath(projectID)
	if err != nil {
		logger.Warn("failed to resolve project memory path for %s: %v", projectID, err)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read project memory for %s: %v", projectID, err)
		}
		return nil
	}

	var mem ProjectMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		logger.Warn("failed to parse project memory for %s: %v", projectID, err)
		return nil
	}

	return &mem
}

// SaveProjectMemory persists a project's conversation state, trimming
// history to the most recent MaxPersistedTurns turns
func (s *Store) SaveProjectMemory(projectID string, history []llm.Turn, messages []ChatMessage, summary string, keyFacts []string) error {
	path, err := s.projectMemoryPath(projectID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}

	trimmed := history
	if len(trimmed) > MaxPersistedTurns {
		trimmed = trimmed[len(trimmed)-MaxPersistedTurns:]
	}

	mem := ProjectMemory{
		ProjectID:           projectID,
		ConversationHistory: trimmed,
		ChatMessages:        messages,
		Summary:             optionalString(summary),
		KeyFacts:            keyFacts,
		LastUpdated:         time.Now().UnixMilli(),
	}

	return s.writeJSON(path, &mem)
}

// UpdateProjectSummary merges a summary into an existing memory record.
// No-op if the project has never been persisted.
func (s *Store) UpdateProjectSummary(projectID, summary string) error {
	existing := s.LoadProjectMemory(projectID)
	if existing == nil {
		return nil
	}

	existing.Summary = optionalString(summary)
	existing.LastUpdated = time.Now().UnixMilli()

	path, err := s.projectMemoryPath(projectID)
	if err != nil {
		return err
	}
	return s.writeJSON(path, existing)
}

// AddProjectKeyFact appends a fact to an existing memory record unless
// it is already present. No-op if the project has never been persisted.
func (s *Store) AddProjectKeyFact(projectID, fact string) error {
	existing := s.LoadProjectMemory(projectID)
	if existing == nil {
		return nil
	}

	for _, f := range existing.KeyFacts {
		if f == fact {
			return nil
		}
	}

	existing.KeyFacts = append(existing.KeyFacts, fact)
	existing.LastUpdated = time.Now().UnixMilli()

	path, err := s.projectMemoryPath(projectID)
	if err != nil {
		return err
	}
	return s.writeJSON(path, existing)
}

// ---- Global memory ----

func (s *Store) globalMemoryPath() string {
	return filepath.Join(s.dataDir, globalMemoryFile)
}

// LoadGlobalMemory returns the cross-project ledger. Missing or
// unreadable files yield an empty ledger, never an error.
func (s *Store) LoadGlobalMemory() GlobalMemory {
	data, err := os.ReadFile(s.globalMemoryPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read global memory: %v", err)
		}
		return GlobalMemory{Entries: []GlobalMemoryEntry{}}
	}

	var mem GlobalMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		logger.Warn("failed to parse global memory: %v", err)
		return GlobalMemory{Entries: []GlobalMemoryEntry{}}
	}
	if mem.Entries == nil {
		mem.Entries = []GlobalMemoryEntry{}
	}

	return mem
}

// SaveGlobalMemory persists the cross-project ledger
func (s *Store) SaveGlobalMemory(mem GlobalMemory) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return s.writeJSON(s.globalMemoryPath(), &mem)
}

// AddGlobalMemoryEntry records a new fact. A case-insensitive duplicate
// of an existing entry's content returns that entry unchanged. The
// ledger is capped at MaxGlobalEntries, evicting the oldest.
func (s *Store) AddGlobalMemoryEntry(content, category, source string) (GlobalMemoryEntry, error) {
	mem := s.LoadGlobalMemory()

	lower := strings.ToLower(content)
	for _, e := range mem.Entries {
		if strings.ToLower(e.Content) == lower {
			return e, nil
		}
	}

	entry := GlobalMemoryEntry{
		ID:        "mem-" + uuid.New().String(),
		Content:   content,
		Category:  category,
		CreatedAt: time.Now().UnixMilli(),
		Source:    source,
	}

	mem.Entries = append(mem.Entries, entry)
	mem.LastUpdated = time.Now().UnixMilli()

	if len(mem.Entries) > MaxGlobalEntries {
		sort.SliceStable(mem.Entries, func(i, j int) bool {
			return mem.Entries[i].CreatedAt < mem.Entries[j].CreatedAt
		})
		mem.Entries = mem.Entries[len(mem.Entries)-MaxGlobalEntries:]
	}

	if err := s.SaveGlobalMemory(mem); err != nil {
		return GlobalMemoryEntry{}, err
	}

	return entry, nil
}

// RemoveGlobalMemoryEntry deletes an entry by id. Returns whether
// anything was removed; persists only on removal.
func (s *Store) RemoveGlobalMemoryEntry(id string) (bool, error) {
	mem := s.LoadGlobalMemory()

	kept := mem.Entries[:0]
	for _, e := range mem.Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}

	if len(kept) == len(mem.Entries) {
		return false, nil
	}

	mem.Entries = kept
	mem.LastUpdated = time.Now().UnixMilli()

	if err := s.SaveGlobalMemory(mem); err != nil {
		return false, err
	}
	return true, nil
}

// SearchGlobalMemory returns entries whose content or category contains
// the query, case-insensitively
func (s *Store) SearchGlobalMemory(query string) []GlobalMemoryEntry {
	mem := s.LoadGlobalMemory()
	lower := strings.ToLower(query)

	var matches []GlobalMemoryEntry
	for _, e := range mem.Entries {
		if strings.Contains(strings.ToLower(e.Content), lower) ||
			strings.Contains(strings.ToLower(e.Category), lower) {
			matches = append(matches, e)
		}
	}
	return matches
}

// ---- Helpers ----

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
