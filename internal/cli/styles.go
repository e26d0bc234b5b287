// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Centralized styling for chatwire CLI output.

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/chatwire/internal/ui/styles"
)

// init configures lipgloss based on terminal capabilities, so NO_COLOR and
// piped output degrade to plain text everywhere.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// promptStyle renders the interactive input prompt.
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// welcomeStyle renders the session banner.
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// infoStyle renders secondary information on stderr.
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// commandStyle renders command names and confirmations.
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// warningStyle renders warnings and cancellations.
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// errorStyle renders recoverable errors.
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// summaryHeaderStyle renders section headers in status output.
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)
)
