// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns a completed assistant reply into styled terminal
// lines. The transform is line-oriented and pure: terminal control (the
// in-place overwrite of the raw streamed text) lives in Screen, so the
// renderer itself is testable without a terminal.
//
// Only a fixed, small set of markdown constructs is handled; this is not a
// CommonMark renderer. Per line, in fixed precedence order: code fence
// toggles, headings, inline substitutions (code, bold, italic, links),
// bullets, numbered lists.
package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/chatwire/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	baseStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	headingStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	inlineCodeStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	codeLineStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	fenceStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)

	fenceLangStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	boldStyle = lipgloss.NewStyle().
			Bold(true)

	italicStyle = lipgloss.NewStyle().
			Italic(true)

	linkLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Underline(true)

	linkURLStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	bulletStyle = lipgloss.NewStyle().
			Foreground(styles.Purple)

	numberStyle = lipgloss.NewStyle().
			Foreground(styles.Purple)
)

// =============================================================================
// PERFORMANCE: Pre-compiled patterns (compiled once at startup)
// =============================================================================

var (
	headingRe    = regexp.MustCompile(`^(#+) (.*)$`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	numberedRe   = regexp.MustCompile(`^(\s*)(\d+\.) (.*)$`)
	codeSpanRe   = regexp.MustCompile("\x00(\\d+)\x00")
)

// =============================================================================
// RENDERER
// =============================================================================

// fenceRuleWidth is the width of the drawn code block boundary.
const fenceRuleWidth = 40

// Renderer re-renders a completed reply as styled lines.
type Renderer struct {
	// Width bounds decorative elements; content lines are never truncated.
	Width int
}

// New creates a renderer for the given terminal width.
func New(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{Width: width}
}

// Render transforms the full accumulated text into styled output lines,
// one result line per input line. It is invoked once per completed
// assistant turn, never incrementally.
func (r *Renderer) Render(full string) []string {
	lines := strings.Split(full, "\n")
	out := make([]string, 0, len(lines))

	inCode := false
	var lexer chroma.Lexer

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// 1. Fence toggle. The boundary marker replaces the fence line and
		// interior lines skip all other constructs.
		if strings.HasPrefix(trimmed, "```") {
			lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			if inCode {
				inCode = false
				lexer = nil
				out = append(out, r.fenceRule(""))
			} else {
				inCode = true
				lexer = lexerFor(lang)
				out = append(out, r.fenceRule(lang))
			}
			continue
		}
		if inCode {
			out = append(out, baseStyle.Render(highlightLine(line, lexer)))
			continue
		}

		// 2. Headings: level = leading '#' count, text wrapped in that many
		// '=' on each side. No inline processing on heading lines.
		if m := headingRe.FindStringSubmatch(line); m != nil {
			eq := strings.Repeat("=", len(m[1]))
			out = append(out, headingStyle.Render(eq+" "+m[2]+" "+eq))
			continue
		}

		// 3. Inline substitutions. Code spans are consumed first and held
		// aside as placeholders so the later passes never re-match the
		// markers inside them; they are restored after the link pass.
		var codeSpans []string
		line = inlineCodeRe.ReplaceAllStringFunc(line, func(s string) string {
			codeSpans = append(codeSpans, inlineCodeStyle.Render(s[1:len(s)-1]))
			return "\x00" + strconv.Itoa(len(codeSpans)-1) + "\x00"
		})
		line = boldRe.ReplaceAllStringFunc(line, func(s string) string {
			return boldStyle.Render(s[2 : len(s)-2])
		})
		line = italicRe.ReplaceAllStringFunc(line, func(s string) string {
			return italicStyle.Render(s[1 : len(s)-1])
		})
		line = linkRe.ReplaceAllStringFunc(line, func(s string) string {
			m := linkRe.FindStringSubmatch(s)
			return linkLabelStyle.Render(m[1]) + " " + linkURLStyle.Render("("+m[2]+")")
		})
		if len(codeSpans) > 0 {
			line = codeSpanRe.ReplaceAllStringFunc(line, func(s string) string {
				i, _ := strconv.Atoi(s[1 : len(s)-1])
				return codeSpans[i]
			})
		}

		// 4. Bullets: marker replaced by a glyph, indentation preserved.
		t := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "* ") {
			indent := line[:len(line)-len(t)]
			out = append(out, baseStyle.Render(indent+bulletStyle.Render("•")+" "+t[2:]))
			continue
		}

		// 5. Numbered lists: the number and period are styled, the text is
		// otherwise unchanged.
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			out = append(out, baseStyle.Render(m[1]+numberStyle.Render(m[2])+" "+m[3]))
			continue
		}

		out = append(out, baseStyle.Render(line))
	}

	return out
}

// fenceRule draws a code block boundary, with a language tag when opening
// a fence that names one.
func (r *Renderer) fenceRule(lang string) string {
	width := fenceRuleWidth
	if r.Width > 0 && r.Width < width {
		width = r.Width
	}
	if lang == "" {
		return fenceStyle.Render(strings.Repeat("─", width))
	}
	tag := " " + lang + " "
	rest := width - len(tag) - 2
	if rest < 0 {
		rest = 0
	}
	return fenceStyle.Render("──") +
		fenceLangStyle.Render(tag) +
		fenceStyle.Render(strings.Repeat("─", rest))
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// lexerFor resolves a fence language tag to a chroma lexer, or nil when the
// fence names no usable language.
func lexerFor(lang string) chroma.Lexer {
	if lang == "" {
		return nil
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// highlightLine applies syntax highlighting to a single fenced line.
// The line's text content is preserved verbatim when highlighting fails.
func highlightLine(line string, lexer chroma.Lexer) string {
	if lexer == nil {
		return codeLineStyle.Render(line)
	}

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return codeLineStyle.Render(line)
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return codeLineStyle.Render(line)
	}
	// chroma appends a trailing newline; output is one line per input line.
	return strings.TrimSuffix(buf.String(), "\n")
}
