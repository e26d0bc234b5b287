// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for chatwire commands.
//
// Handles the flag formats used across commands consistently:
//   - Long flags: --flag value or --flag=value
//   - Boolean flags: --flag
//   - Positional arguments

package cli

import (
	"strings"
)

// knownBoolFlags lists flags that never take a value, so "--quiet prompt"
// parses the prompt as positional.
var knownBoolFlags = map[string]bool{
	"quiet":   true,
	"plain":   true,
	"version": true,
	"help":    true,
}

// ArgParser provides unified argument parsing for CLI commands.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses raw arguments into flags and positionals.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") {
			p.positional = append(p.positional, arg)
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")

		// --flag=value form
		if eq := strings.Index(name, "="); eq >= 0 {
			value := name[eq+1:]
			name = name[:eq]
			if value == "true" || value == "false" {
				p.boolFlags[name] = value == "true"
			} else {
				p.flags[name] = value
			}
			i++
			continue
		}

		// --flag value form, unless the flag is boolean or the next token
		// is itself a flag.
		if !knownBoolFlags[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i += 2
			continue
		}

		p.boolFlags[name] = true
		i++
	}

	return p
}

// Flag returns a string flag's value, or "" when absent.
func (p *ArgParser) Flag(name string) string {
	return p.flags[name]
}

// BoolFlag returns whether a boolean flag was set.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[name]
}

// Positional returns the positional arguments in order.
func (p *ArgParser) Positional() []string {
	return p.positional
}

// Parse splits os.Args-style input into a command name and its arguments.
// An empty or flag-leading argument list selects the default command.
func Parse(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "chat", args
	}
	switch args[0] {
	case "chat", "ask", "version", "help":
		return args[0], args[1:]
	default:
		// Bare words are treated as an ask prompt.
		return "ask", args
	}
}
