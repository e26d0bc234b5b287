// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command for the chatwire CLI.
//
// Provides the REPL that exchanges multi-turn, optionally multimodal
// conversation state with the chat-completions endpoint and renders the
// streamed reply as live terminal output with retroactive markdown
// formatting.
//
// Interactive commands (during chat):
//   /help, /h           Show available commands
//   /attach <path>      Attach an image or PDF to the next message
//   /clear, /c          Clear conversation history
//   /model [name]       Show or switch model
//   /status, /s         Show session status
//   /history            Show conversation history
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/peterh/liner"

	"github.com/morganforge/chatwire/internal/cloud"
	"github.com/morganforge/chatwire/internal/config"
	"github.com/morganforge/chatwire/internal/conversation"
	"github.com/morganforge/chatwire/internal/render"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// pendingAttachment holds an encoded file waiting for the next message.
type pendingAttachment struct {
	node conversation.ContentNode
	kind conversation.ContentKind
	path string
}

// ChatSession holds the state for one interactive session. The ledger is
// touched only from the session loop: before a request is sent and after
// its stream completes.
type ChatSession struct {
	ID     uuid.UUID
	Ledger *conversation.Ledger
	Config *config.Config
	Client *cloud.Client
	Input  *ChatInput

	StartTime time.Time
	Turns     int

	attachment *pendingAttachment

	// cancelMu guards cancelFunc: the signal goroutine fires it while the
	// session loop installs and clears it around each stream.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc
}

// setCancel installs or clears the cancel hook for the in-flight stream.
func (s *ChatSession) setCancel(fn context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancelFunc = fn
	s.cancelMu.Unlock()
}

// cancelInFlight aborts the in-flight stream, if any. Safe to call from the
// signal goroutine; a second call is a no-op.
func (s *ChatSession) cancelInFlight() {
	s.cancelMu.Lock()
	fn := s.cancelFunc
	s.cancelFunc = nil
	s.cancelMu.Unlock()
	if fn != nil {
		fn()
	}
}

// NewChatSession creates a session from the loaded configuration.
func NewChatSession(cfg *config.Config) *ChatSession {
	client := cloud.NewClient(cfg.API.Key).
		WithBaseURL(cfg.API.BaseURL).
		WithModel(cfg.Model).
		WithSampling(cfg.API.Temperature, cfg.API.MaxTokens)

	return &ChatSession{
		ID:        uuid.New(),
		Ledger:    conversation.NewLedger(),
		Config:    cfg,
		Client:    client,
		Input:     NewChatInput(),
		StartTime: time.Now(),
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the interactive chat REPL.
func HandleChatCommand(cfg *config.Config, args []string) error {
	parser := NewArgParser(args)
	if model := parser.Flag("model"); model != "" {
		cfg.Model = model
	}
	quiet := parser.BoolFlag("quiet")

	// The REPL needs a terminal on stdin: liner prompts, Ctrl+C handling,
	// and history navigation all assume one.
	if !IsTTY() {
		return errors.New(`chat needs an interactive terminal; use "chatwire ask" for piped input`)
	}

	session := NewChatSession(cfg)
	if !session.Client.IsConfigured() {
		return fmt.Errorf("no API key configured: set CHATWIRE_API_KEY or api.key in %s", configPathHint())
	}

	if !quiet {
		printWelcome(session)
	}

	defer session.Input.Close()

	// First Ctrl+C cancels the in-flight generation; at the prompt liner
	// surfaces it as ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			session.cancelInFlight()
		}
	}()

	for {
		input, err := session.Input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println()
				continue
			}
			// EOF (Ctrl+D) exits gracefully.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)

		// Empty input re-prompts; only exit/quit (or Ctrl+D) ends the
		// session.
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		// Transport errors are recoverable: report and prompt again.
		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage appends the user turn, streams the reply, re-renders it,
// and commits the assistant turn. On any failure the in-flight user turn is
// rolled back so history never carries a turn without its reply.
func processMessage(session *ChatSession, input string) error {
	kind := conversation.KindText
	var node conversation.ContentNode
	if session.attachment != nil {
		node = session.attachment.node
		kind = session.attachment.kind
		session.attachment = nil
	}

	// The single system turn is fixed at the first send, templated by the
	// content kind of that first message.
	session.Ledger.AppendSystem(conversation.SystemPromptFor(kind))
	session.Ledger.AppendUser(input, node)

	ctx, cancel := context.WithCancel(context.Background())
	session.setCancel(cancel)
	defer func() {
		session.setCancel(nil)
		cancel()
	}()

	var indicator *Indicator
	if session.Config.UI.ThinkingIndicator {
		indicator = StartIndicator(os.Stderr)
	}
	stopIndicator := func() {
		if indicator != nil {
			indicator.Stop()
		}
	}

	fmt.Println()

	// Phase 1: raw deltas go straight to the terminal while the screen
	// tracks how many rows they occupy.
	screen := render.NewScreen(os.Stdout, GetTerminalWidth())
	var acc cloud.Accumulator
	startTime := time.Now()

	err := session.Client.ChatStream(ctx, session.Ledger.Messages(), func(delta string) {
		stopIndicator()
		screen.WriteString(delta)
		acc.Add(delta)
	})
	stopIndicator()

	if err != nil {
		session.Ledger.DropLastUser()
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			return nil
		}
		return err
	}

	if acc.Empty() {
		session.Ledger.DropLastUser()
		fmt.Fprintln(os.Stderr, warningStyle.Render("[Empty response]"))
		return nil
	}

	// Phase 2: overwrite the raw text in place with the styled rendering.
	if session.Config.UI.Markdown && IsStdoutTTY() {
		screen.Rewind()
		renderer := render.New(GetTerminalWidth())
		screen.WriteLines(renderer.Render(acc.Content()))
	} else {
		fmt.Println()
	}
	fmt.Println()

	session.Ledger.AppendAssistant(acc.Content())
	session.Turns++

	showBriefStats(acc.Deltas(), time.Since(startTime))
	return nil
}

// showBriefStats prints a one-line summary after each reply.
func showBriefStats(deltas int, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "%s %d chunks | %s\n",
		infoStyle.Render("[Stats]"),
		deltas,
		duration.Round(time.Millisecond))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printHelp()
		return true, nil

	case "/attach", "/a":
		return true, handleAttachCommand(session, args)

	case "/clear", "/c":
		session.Ledger.Reset()
		session.attachment = nil
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		if len(args) == 0 {
			fmt.Printf("%s %s\n",
				infoStyle.Render("[Model]"),
				commandStyle.Render(session.Client.Model()))
			return true, nil
		}
		session.Client.WithModel(args[0])
		session.Config.Model = args[0]
		fmt.Printf("%s Switched to model: %s\n", commandStyle.Render("[OK]"), args[0])
		return true, nil

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleAttachCommand encodes a file for the next message. Unsupported
// types fail here, before any network call.
func handleAttachCommand(session *ChatSession, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /attach <path>")
	}
	path := strings.Join(args, " ")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("cannot read file: %w", err)
	}

	node, err := conversation.EncodeFile(path, data)
	if err != nil {
		return err
	}

	session.attachment = &pendingAttachment{
		node: node,
		kind: node.Kind(),
		path: path,
	}
	fmt.Printf("%s %s attached (%s); it will be sent with your next message\n",
		commandStyle.Render("[OK]"),
		path,
		node.Kind())
	return nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the session banner.
func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("chatwire interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(session.Config.Model))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Endpoint:"),
		commandStyle.Render(session.Config.API.BaseURL))
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printHelp prints available commands.
func printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/attach <path>", "Attach an image (png/jpg/jpeg/webp) or PDF"},
		{"/clear, /c", "Clear conversation history"},
		{"/model [name]", "Show or switch model"},
		{"/status, /s", "Show session status"},
		{"/history", "Show conversation history"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-16s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current generation, Ctrl+D exits"))
	fmt.Println()
}

// printStatus prints session status.
func printStatus(session *ChatSession) {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()
	fmt.Printf("  %s %s\n", infoStyle.Render("Session:"), session.ID.String())
	fmt.Printf("  %s %s\n", infoStyle.Render("Model:"), commandStyle.Render(session.Client.Model()))
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration:"), time.Since(session.StartTime).Round(time.Second))
	fmt.Printf("  %s %d turns, %d messages\n",
		infoStyle.Render("History:"),
		session.Turns,
		session.Ledger.Len())
	if session.attachment != nil {
		fmt.Printf("  %s %s (%s)\n",
			infoStyle.Render("Pending:"),
			session.attachment.path,
			session.attachment.kind)
	}
	fmt.Println()
}

// printHistory prints the conversation so far.
func printHistory(session *ChatSession) {
	turns := session.Ledger.Turns()
	if len(turns) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, turn := range turns {
		var role string
		switch turn.Role {
		case conversation.RoleUser:
			role = promptStyle.Render("You")
		case conversation.RoleAssistant:
			role = welcomeStyle.Render("AI")
		case conversation.RoleSystem:
			role = warningStyle.Render("System")
		}

		content := turn.Text()
		if turn.IsMultimodal() {
			content += " [+attachment]"
		}
		// Rune-based truncation keeps multibyte text intact.
		runes := []rune(content)
		if len(runes) > 100 {
			content = string(runes[:100]) + "..."
		}
		content = strings.ReplaceAll(content, "\n", " ")

		fmt.Printf("  %d. %s: %s\n", i+1, role, content)
	}
	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(session *ChatSession) {
	if session.Turns == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %d\n", infoStyle.Render("Turns:"), session.Turns)
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration:"), time.Since(session.StartTime).Round(time.Second))
	fmt.Printf("  %s %s\n", infoStyle.Render("Model:"), session.Client.Model())
	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}

// configPathHint returns the config file path for error messages.
func configPathHint() string {
	path, err := config.ConfigPath()
	if err != nil {
		return "~/.chatwire/config.toml"
	}
	return path
}
