// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chatwire is a streaming terminal client for OpenAI-compatible chat
// endpoints, with multimodal attachments and live markdown rendering.
//
// Usage:
//
//	chatwire                    interactive chat (default)
//	chatwire chat [--model m]   interactive chat
//	chatwire ask <prompt>       one-shot prompt
//	chatwire version            print version
package main

import (
	"fmt"
	"os"

	"github.com/morganforge/chatwire/internal/cli"
	"github.com/morganforge/chatwire/internal/config"
)

// Version information, set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	command, args := cli.Parse(os.Args[1:])

	switch command {
	case "version":
		printVersion()
		return
	case "help":
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatwire: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "chat":
		err = cli.HandleChatCommand(cfg, args)
	case "ask":
		err = cli.HandleAskCommand(cfg, args)
	default:
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "chatwire: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("chatwire %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

func printUsage() {
	fmt.Print(`chatwire - streaming terminal chat client

Usage:
  chatwire                      Start interactive chat
  chatwire chat [flags]         Start interactive chat
  chatwire ask [flags] <prompt> Send one prompt and print the reply
  chatwire version              Print version information
  chatwire help                 Show this help

Flags:
  --model <name>   Override the configured model
  --file <path>    Attach an image or PDF (ask only)
  --plain          Disable markdown rendering (ask only)
  --quiet          Skip the welcome banner (chat only)

Configuration:
  ~/.chatwire/config.toml, overridden by CHATWIRE_* environment
  variables. OPENAI_API_KEY is honored when no key is configured.
`)
}
