// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot prompt command for the chatwire CLI.
//
// Sends a single prompt (optionally with an attached file) and prints the
// reply. On a TTY the full response is collected and rendered as styled
// markdown; when piped, deltas stream straight to stdout so the output
// composes with other tools.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"

	"github.com/morganforge/chatwire/internal/cloud"
	"github.com/morganforge/chatwire/internal/config"
	"github.com/morganforge/chatwire/internal/conversation"
)

// HandleAskCommand sends one prompt and prints the reply.
func HandleAskCommand(cfg *config.Config, args []string) error {
	parser := NewArgParser(args)
	if model := parser.Flag("model"); model != "" {
		cfg.Model = model
	}
	plain := parser.BoolFlag("plain")

	prompt := strings.TrimSpace(strings.Join(parser.Positional(), " "))
	if prompt == "" {
		return errors.New("usage: chatwire ask [--file <path>] [--model <name>] <prompt>")
	}

	// Encode the attachment first so unsupported types fail before any
	// network call.
	kind := conversation.KindText
	var node conversation.ContentNode
	if path := parser.Flag("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read file: %w", err)
		}
		node, err = conversation.EncodeFile(path, data)
		if err != nil {
			return err
		}
		kind = node.Kind()
	}

	client := cloud.NewClient(cfg.API.Key).
		WithBaseURL(cfg.API.BaseURL).
		WithModel(cfg.Model).
		WithSampling(cfg.API.Temperature, cfg.API.MaxTokens)
	if !client.IsConfigured() {
		return fmt.Errorf("no API key configured: set CHATWIRE_API_KEY or api.key in %s", configPathHint())
	}

	ledger := conversation.NewLedger()
	ledger.AppendSystem(conversation.SystemPromptFor(kind))
	ledger.AppendUser(prompt, node)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Piped output: stream raw deltas as they arrive.
	if plain || !IsStdoutTTY() {
		err := client.ChatStream(ctx, ledger.Messages(), func(delta string) {
			fmt.Print(delta)
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fmt.Println()
		return nil
	}

	// TTY: collect the full response, then render it once.
	var indicator *Indicator
	if cfg.UI.ThinkingIndicator {
		indicator = StartIndicator(os.Stderr)
	}

	content, err := client.ChatStreamAccumulate(ctx, ledger.Messages())
	if indicator != nil {
		indicator.Stop()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, warningStyle.Render("[Cancelled]"))
			return nil
		}
		return err
	}
	if strings.TrimSpace(content) == "" {
		fmt.Fprintln(os.Stderr, warningStyle.Render("[Empty response]"))
		return nil
	}

	displayResponse(content)
	return nil
}

// displayResponse renders markdown to the terminal, falling back to plain
// text when rendering fails.
func displayResponse(content string) {
	rendered, err := renderMarkdown(content)
	if err != nil {
		fmt.Println(content)
		return
	}
	fmt.Print(rendered)
}

// renderMarkdown formats content for terminal display.
func renderMarkdown(content string) (string, error) {
	width := GetTerminalWidth()
	if width > 100 {
		width = 100
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
