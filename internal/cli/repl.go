package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/hession/protomate/internal/agent"
	"github.com/hession/protomate/internal/config"
	"github.com/hession/protomate/internal/llm"
	"github.com/hession/protomate/internal/memory"
	"github.com/hession/protomate/internal/project"
	"github.com/hession/protomate/internal/prompt"
	"github.com/hession/protomate/internal/tools"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

const untitledName = "Untitled"

// repl holds the interactive session state
type repl struct {
	agent    *agent.Agent
	registry *project.Registry
	manager  *project.Manager
	store    *memory.Store
	cfg      *config.Config
	named    bool // whether the active project has a generated name
}

// Run starts the interactive prototyping session
func Run(cfg *config.Config) error {
	printWelcome()

	if !cfg.IsAPIKeyConfigured() {
		return promptAPIKey(cfg)
	}

	llmClient := llm.New(
		cfg.Model.APIKey,
		cfg.Model.BaseURL,
		cfg.Model.Model,
		cfg.Model.MaxTokens,
	)

	manager, err := project.NewManager(cfg.Projects.RootDir)
	if err != nil {
		return fmt.Errorf("failed to initialize project sandbox: %w", err)
	}

	registry, err := project.NewRegistry(cfg.Projects.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open project registry: %w", err)
	}
	defer registry.Close()

	memStore := memory.NewStore(cfg.Memory.DataDir, manager)
	executor := tools.NewExecutor(manager, memStore)

	ag := agent.New(
		llmClient, memStore, executor,
		agent.WithSink(&consoleSink{}),
		agent.WithNameModel(cfg.Model.NameModel),
		agent.WithToolCallHandler(toolCallOutput),
	)

	r := &repl{agent: ag, registry: registry, manager: manager, store: memStore, cfg: cfg}

	// Resume the last project or start a fresh one
	if err := r.openInitialProject(); err != nil {
		return err
	}

	return r.run()
}

// openInitialProject resumes the most recent project, or scaffolds a
// new one when none exist
func (r *repl) openInitialProject() error {
	rec, err := r.registry.GetLatest()
	if err != nil {
		return fmt.Errorf("failed to query project registry: %w", err)
	}

	if rec != nil {
		r.agent.Initialize(rec.Mode, rec.ID)
		r.named = rec.Name != untitledName
		fmt.Printf("%sResumed project: %s (%s)%s\n\n", colorGray, rec.Name, rec.Mode, colorReset)
		return nil
	}

	return r.newProject(prompt.ModeRapidPrototype)
}

// newProject scaffolds and registers a fresh prototype project
func (r *repl) newProject(mode string) error {
	id, err := r.registry.Create(untitledName, mode)
	if err != nil {
		return fmt.Errorf("failed to register project: %w", err)
	}
	if err := r.manager.Scaffold(id); err != nil {
		return fmt.Errorf("failed to scaffold project: %w", err)
	}

	r.agent.ClearHistory()
	r.agent.Initialize(mode, id)
	r.named = false

	fmt.Printf("%sStarted new project (%s)%s\n\n", colorGray, mode, colorReset)
	return nil
}

// printWelcome prints welcome message
func printWelcome() {
	fmt.Printf("\n%sProtomate v%s%s - Conversational UI Prototyping\n", colorCyan, Version, colorReset)
	fmt.Printf("%sDescribe the interface you want; type /help for commands%s\n\n", colorGray, colorReset)
}

// promptAPIKey prompts user to configure API Key
func promptAPIKey(cfg *config.Config) error {
	fmt.Printf("%sAPI key not configured%s\n\n", colorYellow, colorReset)

	rl, err := readline.New("Please enter your Anthropic API key: ")
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	apiKey, err := rl.Readline()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	cfg.Model.APIKey = apiKey
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n%sAPI key saved%s\n\n", colorGreen, colorReset)

	// Restart
	return Run(cfg)
}

// getHistoryFilePath returns the input history file path
func getHistoryFilePath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

// run drives the interactive loop
func (r *repl) run() error {
	rlConfig := &readline.Config{
		Prompt:          fmt.Sprintf("%sYou: %s", colorGreen, colorReset),
		HistoryFile:     getHistoryFilePath(),
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n\n%sGoodbye!%s\n", colorCyan, colorReset)
		cancel()
		rl.Close()
		os.Exit(0)
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("\n%sPress Ctrl+C again or type /exit to quit%s\n", colorYellow, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Printf("\n%sGoodbye!%s\n", colorCyan, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if r.handleCommand(input) {
				continue
			}
			return nil // /exit command
		}

		if err := r.processInput(ctx, input); err != nil {
			return err
		}
	}
}

// processInput sends user input to the agent and names the project
// after its first message
func (r *repl) processInput(ctx context.Context, input string) error {
	fmt.Printf("\n%sProtomate: %s", colorBlue, colorReset)

	if err := r.agent.SendMessage(ctx, input, nil); err != nil {
		if !errors.Is(err, agent.ErrPersist) {
			// Model failures reach the user through the sink
			fmt.Println()
			return nil
		}
		// The response streamed fine; only the save failed
		fmt.Printf("\n%sWarning: %v%s\n", colorYellow, err, colorReset)
	}

	if !r.named {
		name := r.agent.GenerateProjectName(ctx, input)
		if err := r.registry.Rename(r.agent.ProjectID(), name); err == nil {
			r.named = true
			fmt.Printf("%sProject named: %s%s\n", colorGray, name, colorReset)
		}
	}

	fmt.Println()
	return nil
}

// handleCommand handles built-in commands, returns true to continue loop, false to exit
func (r *repl) handleCommand(cmd string) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "/help":
		printHelp()
		return true

	case "/exit", "/quit", "/q":
		fmt.Printf("%sGoodbye!%s\n", colorCyan, colorReset)
		return false

	case "/config":
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("%sFailed to load config: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Println(cfg.String())
		}
		return true

	case "/new":
		mode := r.agent.Mode()
		if len(parts) > 1 {
			mode = parts[1]
		}
		if err := r.newProject(mode); err != nil {
			fmt.Printf("%sFailed to create project: %v%s\n", colorRed, err, colorReset)
		}
		return true

	case "/mode":
		return r.handleModeCommand(parts[1:])

	case "/projects":
		r.listProjects()
		return true

	case "/open":
		if len(parts) < 2 {
			fmt.Printf("%sUsage: /open <project-id>%s\n", colorYellow, colorReset)
			return true
		}
		r.openProject(parts[1])
		return true

	case "/memory":
		r.handleMemoryCommand(parts[1:])
		return true

	case "/facts":
		r.listKeyFacts()
		return true

	default:
		fmt.Printf("%sUnknown command: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Println("Type /help for available commands")
		return true
	}
}

func (r *repl) handleModeCommand(args []string) bool {
	if len(args) == 0 {
		fmt.Printf("Current mode: %s\nAvailable: %s\n", r.agent.Mode(), strings.Join(prompt.Modes(), ", "))
		return true
	}

	mode := args[0]
	if !prompt.IsKnownMode(mode) {
		fmt.Printf("%sUnknown mode: %s%s\n", colorYellow, mode, colorReset)
		fmt.Printf("Available: %s\n", strings.Join(prompt.Modes(), ", "))
		return true
	}

	r.agent.SetMode(mode)
	fmt.Printf("%sMode set to %s%s\n", colorGreen, mode, colorReset)
	return true
}

func (r *repl) listProjects() {
	records, err := r.registry.List()
	if err != nil {
		fmt.Printf("%sFailed to list projects: %v%s\n", colorRed, err, colorReset)
		return
	}
	if len(records) == 0 {
		fmt.Println("No projects yet")
		return
	}

	for i, rec := range records {
		marker := "  "
		if rec.ID == r.agent.ProjectID() {
			marker = "* "
		}
		fmt.Printf("%s%d. %s - %s (%s, %s)\n",
			marker, i+1, rec.ID[:8], rec.Name, rec.Mode,
			rec.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func (r *repl) openProject(idPrefix string) {
	records, err := r.registry.List()
	if err != nil {
		fmt.Printf("%sFailed to list projects: %v%s\n", colorRed, err, colorReset)
		return
	}

	for _, rec := range records {
		if strings.HasPrefix(rec.ID, idPrefix) {
			r.agent.Initialize(rec.Mode, rec.ID)
			r.named = rec.Name != untitledName
			_ = r.registry.Touch(rec.ID)
			fmt.Printf("%sOpened project: %s (%s)%s\n", colorGray, rec.Name, rec.Mode, colorReset)
			return
		}
	}

	fmt.Printf("%sNo project matching %q%s\n", colorYellow, idPrefix, colorReset)
}

func (r *repl) listKeyFacts() {
	facts := r.agent.KeyFacts()
	if len(facts) == 0 {
		fmt.Println("No key facts recorded for this project")
		return
	}
	for _, fact := range facts {
		fmt.Printf("- %s\n", fact)
	}
}

// printHelp prints help information
func printHelp() {
	fmt.Printf(`
%sProtomate Help%s

%sBuilt-in Commands:%s
  /help             - Show this help message
  /new [mode]       - Start a new prototype project
  /mode [name]      - Show or change the generation mode
  /projects         - List all projects
  /open <id>        - Switch to another project
  /memory           - Manage remembered preferences
  /facts            - Show key facts for this project
  /config           - Show current configuration
  /exit             - Exit program

%sModes:%s
  rapid-prototype, mobile-first, data-heavy, presentation

%sExamples:%s
  "Build me a dashboard with a sidebar and stats cards"
  "Make the header sticky and add a search bar"
  "Remember that I prefer dark themes"

`, colorCyan, colorReset, colorYellow, colorReset, colorYellow, colorReset, colorYellow, colorReset)
}

// consoleSink renders agent events to the terminal, standing in for
// the host window
type consoleSink struct{}

func (s *consoleSink) StreamDelta(messageID, delta string, isComplete bool) {
	if delta != "" {
		fmt.Print(delta)
	}
	if isComplete {
		fmt.Println()
	}
}

func (s *consoleSink) ReloadPreview() {
	fmt.Printf("%s(preview updated)%s\n", colorGray, colorReset)
}

func (s *consoleSink) ReportError(message string) {
	fmt.Printf("\n%sError: %s%s\n", colorRed, message, colorReset)
}

// toolCallOutput prints tool activity as it happens
func toolCallOutput(name string, input json.RawMessage, result string) {
	fmt.Printf("\n%sCalling tool: %s%s\n", colorYellow, name, colorReset)

	var args map[string]any
	if err := json.Unmarshal(input, &args); err == nil {
		if path, ok := args["path"].(string); ok {
			fmt.Printf("%s   Path: %s%s\n", colorGray, path, colorReset)
		}
	}

	fmt.Printf("%s   Status: %s%s\n", colorGray, toolResultStatus(result), colorReset)
}

// toolResultStatus derives a short status word from a tool result string
func toolResultStatus(result string) string {
	if strings.HasPrefix(result, "Error executing") || strings.HasPrefix(result, "Unknown tool:") {
		return "failed"
	}
	return "done"
}
