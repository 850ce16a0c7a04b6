package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hession/protomate/internal/llm"
	"github.com/hession/protomate/internal/logger"
	"github.com/hession/protomate/internal/memory"
	"github.com/hession/protomate/internal/prompt"
	"github.com/hession/protomate/internal/tools"
)

const (
	// MaxToolIterations maximum number of tool call iterations per send
	MaxToolIterations = 10

	// SummaryTurnThreshold history length at which a background summary
	// is generated, if none exists yet
	SummaryTurnThreshold = 20

	// summaryContextTurns how many leading turns feed the summary
	summaryContextTurns = 20

	nameMaxTokens    = 30
	summaryMaxTokens = 256

	// FallbackProjectName returned when name generation fails
	FallbackProjectName = "prototype"
)

// ErrPersist marks a failure writing the conversation to disk after the
// response already reached the sink
var ErrPersist = errors.New("failed to persist conversation")

// ModelClient is the agent's view of the hosted model
type ModelClient interface {
	CreateMessage(ctx context.Context, req llm.MessageRequest) (*llm.MessageResponse, error)
}

// Sink receives display events for the active session. It stands in
// for the host window: stream deltas, preview reloads and errors all
// flow through it.
type Sink interface {
	StreamDelta(messageID, delta string, isComplete bool)
	ReloadPreview()
	ReportError(message string)
}

// ImageInput a base64-encoded image attached to a user message
type ImageInput struct {
	Data     string
	MimeType string
}

// Agent drives the bounded tool-calling loop against the model and owns
// the conversation state for one active project session. A single
// SendMessage is expected to be in flight at a time; overlapping calls
// are unsupported.
type Agent struct {
	client          ModelClient
	memory          *memory.Store
	executor        *tools.Executor
	sink            Sink
	nameModel       string
	toolCallHandler func(name string, input json.RawMessage, result string)

	mode         string
	projectID    string
	history      []llm.Turn
	chatMessages []memory.ChatMessage
	keyFacts     []string

	// mu guards summary and the view of projectID shared with the
	// background summarizer
	mu      sync.Mutex
	summary string
}

// Option agent configuration option
type Option func(*Agent)

// WithSink sets the display event sink
func WithSink(sink Sink) Option {
	return func(a *Agent) {
		a.sink = sink
	}
}

// WithNameModel sets the model used for project name generation
func WithNameModel(model string) Option {
	return func(a *Agent) {
		a.nameModel = model
	}
}

// WithToolCallHandler sets a handler notified after each tool execution
func WithToolCallHandler(handler func(name string, input json.RawMessage, result string)) Option {
	return func(a *Agent) {
		a.toolCallHandler = handler
	}
}

// New creates a new Agent instance
func New(client ModelClient, store *memory.Store, executor *tools.Executor, opts ...Option) *Agent {
	a := &Agent{
		client:   client,
		memory:   store,
		executor: executor,
		mode:     prompt.ModeRapidPrototype,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Initialize points the agent at a project and restores its persisted
// conversation, fully replacing any prior in-memory state
func (a *Agent) Initialize(mode, projectID string) {
	a.mode = mode
	a.mu.Lock()
	a.projectID = projectID
	a.mu.Unlock()

	rec := a.memory.LoadProjectMemory(projectID)
	if rec == nil {
		a.history = nil
		a.chatMessages = nil
		a.keyFacts = nil
		a.setSummary("")
		return
	}

	a.history = rec.ConversationHistory
	a.chatMessages = rec.ChatMessages
	a.keyFacts = rec.KeyFacts
	if rec.Summary != nil {
		a.setSummary(*rec.Summary)
	} else {
		a.setSummary("")
	}
}

// ClearHistory resets the conversation, display messages, summary and
// key facts. Used when the user starts a new project.
func (a *Agent) ClearHistory() {
	a.history = nil
	a.chatMessages = nil
	a.keyFacts = nil
	a.setSummary("")
}

// SetMode changes the behavioral preset for subsequent sends
func (a *Agent) SetMode(mode string) {
	a.mode = mode
}

// Mode returns the current behavioral preset
func (a *Agent) Mode() string {
	return a.mode
}

// ProjectID returns the active project id
func (a *Agent) ProjectID() string {
	return a.projectID
}

// History returns the model-facing conversation history
func (a *Agent) History() []llm.Turn {
	return a.history
}

// ChatMessages returns the display-oriented message list
func (a *Agent) ChatMessages() []memory.ChatMessage {
	return a.chatMessages
}

// SendMessage runs one full agentic exchange: the user text (and any
// images) is appended to history, the model is called in a bounded loop
// executing tool calls between iterations, and output streams to the
// sink. Returns after persistence; summary generation continues in the
// background.
func (a *Agent) SendMessage(ctx context.Context, text string, images []ImageInput) error {
	if a.sink == nil {
		// No display target: intentional short-circuit, not an error
		return nil
	}

	// Compose the input turn: image blocks first, then the text block
	var content []llm.ContentBlock
	for _, img := range images {
		content = append(content, llm.ImageBlock(img.MimeType, img.Data))
	}
	content = append(content, llm.TextBlock(text))

	a.history = append(a.history, llm.Turn{Role: "user", Content: content})
	a.chatMessages = append(a.chatMessages, a.userChatMessage(text, images))

	messageID := uuid.New().String()

	var finalText string
	var toolCalls []memory.ToolCallSummary

	for i := 0; i < MaxToolIterations; i++ {
		globalMem := a.memory.LoadGlobalMemory()
		system := prompt.SystemPrompt(a.mode, a.projectID, a.Summary(), a.keyFacts, globalMem.Entries)

		resp, err := a.client.CreateMessage(ctx, llm.MessageRequest{
			System:   system,
			Messages: a.history,
			Tools:    tools.Declarations(),
		})
		if err != nil {
			logger.Error("model call failed: %v", err)
			a.sink.ReportError(err.Error())
			return fmt.Errorf("model call failed: %w", err)
		}

		a.history = append(a.history, llm.Turn{Role: "assistant", Content: resp.Content})

		toolUses := resp.ToolUses()
		if len(toolUses) == 0 {
			// Final iteration: one complete event carrying all the text
			finalText = resp.TextContent()
			if finalText != "" {
				a.sink.StreamDelta(messageID, finalText, true)
			}
			break
		}

		// Surface "thinking out loud" text before tool execution finishes
		for _, block := range resp.Content {
			if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
				a.sink.StreamDelta(messageID, block.Text, false)
			}
		}

		// Execute every tool call, then fold all results into a single
		// user turn so no tool_use block is left unanswered
		var results []llm.ContentBlock
		for _, use := range toolUses {
			logger.Info("executing tool: %s", use.Name)
			result := a.executor.ExecuteToolCall(use.Name, use.Input, a.projectID)
			if a.toolCallHandler != nil {
				a.toolCallHandler(use.Name, use.Input, result)
			}
			results = append(results, llm.ToolResultBlock(use.ID, result))
			toolCalls = append(toolCalls, memory.ToolCallSummary{
				ID:     use.ID,
				Name:   use.Name,
				Status: toolStatus(use.Name, result),
				Result: result,
			})
		}
		a.history = append(a.history, llm.Turn{Role: "user", Content: results})
	}

	// Terminal completion event: the host can always rely on one
	a.sink.StreamDelta(messageID, "", true)
	a.sink.ReloadPreview()

	a.chatMessages = append(a.chatMessages, memory.ChatMessage{
		ID:        messageID,
		Role:      "assistant",
		Content:   finalText,
		Timestamp: time.Now().UnixMilli(),
		ToolCalls: toolCalls,
	})

	if err := a.persist(); err != nil {
		logger.Error("failed to persist conversation for %s: %v", a.projectID, err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if len(a.history) >= SummaryTurnThreshold && a.Summary() == "" {
		// Snapshot history and project identity so the detached
		// summarizer never races a later send or project switch
		snapshot := append([]llm.Turn(nil), a.history...)
		go a.generateSummary(a.projectID, snapshot)
	}

	return nil
}

// GenerateProjectName asks the model for a short project name based on
// the user's first request. Falls back to a fixed literal on any
// failure so project creation never blocks on the model.
func (a *Agent) GenerateProjectName(ctx context.Context, userText string) string {
	instruction := "Generate a short, memorable project name (2-4 words) for a UI prototype based on this request. " +
		"Respond with only the name, no quotes or punctuation.\n\nRequest: " + userText

	resp, err := a.client.CreateMessage(ctx, llm.MessageRequest{
		Model:     a.nameModel,
		MaxTokens: nameMaxTokens,
		Messages: []llm.Turn{
			{Role: "user", Content: []llm.ContentBlock{llm.TextBlock(instruction)}},
		},
	})
	if err != nil {
		logger.Warn("project name generation failed: %v", err)
		return FallbackProjectName
	}

	name := strings.TrimSpace(resp.TextContent())
	if name == "" {
		return FallbackProjectName
	}
	return name
}

// Summary returns the cached project summary, empty if none exists
func (a *Agent) Summary() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summary
}

func (a *Agent) setSummary(s string) {
	a.mu.Lock()
	a.summary = s
	a.mu.Unlock()
}

// setSummaryIfActive caches a summary only while projectID is still the
// active project; a stale summarizer result must not leak into another
// session
func (a *Agent) setSummaryIfActive(projectID, s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.projectID == projectID {
		a.summary = s
	}
}

// KeyFacts returns the cached project key facts
func (a *Agent) KeyFacts() []string {
	return a.keyFacts
}

// AddKeyFact records a key fact in memory and persists it
func (a *Agent) AddKeyFact(fact string) error {
	for _, f := range a.keyFacts {
		if f == fact {
			return nil
		}
	}
	a.keyFacts = append(a.keyFacts, fact)
	return a.memory.AddProjectKeyFact(a.projectID, fact)
}

func (a *Agent) persist() error {
	return a.memory.SaveProjectMemory(a.projectID, a.history, a.chatMessages, a.Summary(), a.keyFacts)
}

// generateSummary condenses the leading turns of the conversation into
// a short summary for projectID, pinned at spawn time so a project
// switch mid-flight cannot misdirect the result. Detached from
// SendMessage: failures are logged and the summary stays empty, to be
// retried on a later session.
func (a *Agent) generateSummary(projectID string, turns []llm.Turn) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("summary generation panicked: %v", r)
		}
	}()

	if len(turns) > summaryContextTurns {
		turns = turns[:summaryContextTurns]
	}

	var parts []string
	for _, turn := range turns {
		var b strings.Builder
		for _, block := range turn.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", turn.Role, b.String()))
		}
	}
	if len(parts) == 0 {
		return
	}

	instruction := "Summarize this UI prototyping conversation in 2-3 sentences, " +
		"focusing on what was built and the key design decisions:\n\n" + strings.Join(parts, "\n\n")

	resp, err := a.client.CreateMessage(context.Background(), llm.MessageRequest{
		MaxTokens: summaryMaxTokens,
		Messages: []llm.Turn{
			{Role: "user", Content: []llm.ContentBlock{llm.TextBlock(instruction)}},
		},
	})
	if err != nil {
		logger.Warn("summary generation failed: %v", err)
		return
	}

	summary := strings.TrimSpace(resp.TextContent())
	if summary == "" {
		return
	}

	a.setSummaryIfActive(projectID, summary)
	if err := a.memory.UpdateProjectSummary(projectID, summary); err != nil {
		logger.Warn("failed to persist summary for %s: %v", projectID, err)
	}
}

func (a *Agent) userChatMessage(text string, images []ImageInput) memory.ChatMessage {
	msg := memory.ChatMessage{
		ID:        uuid.New().String(),
		Role:      "user",
		Content:   text,
		Timestamp: time.Now().UnixMilli(),
	}
	for _, img := range images {
		msg.Attachments = append(msg.Attachments, memory.Attachment{
			ID:       uuid.New().String(),
			Type:     "image",
			MimeType: img.MimeType,
			Size:     len(img.Data),
		})
	}
	return msg
}

func toolStatus(name, result string) string {
	if strings.HasPrefix(result, "Error executing "+name) || strings.HasPrefix(result, "Unknown tool:") {
		return "error"
	}
	return "success"
}
