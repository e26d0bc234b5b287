// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the append-only conversation history exchanged
// with the chat-completions API, including multimodal content nodes.
//
// A Turn's content is a tagged union: either plain text or an ordered list
// of content nodes. The union shape prevents the invalid state where both
// variants are populated at once, and MarshalJSON produces the exact wire
// layout the remote API expects.
package conversation

import (
	"encoding/json"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// =============================================================================
// CONTENT NODES
// =============================================================================

// ContentNode is one element of a multimodal turn's content list.
// Implementations marshal to the exact wire shape of the remote API.
type ContentNode interface {
	json.Marshaler
	// Kind reports the content kind the node carries.
	Kind() ContentKind
}

// TextNode is a plain text content element.
type TextNode struct {
	Text string
}

// Kind implements ContentNode.
func (n TextNode) Kind() ContentKind { return KindText }

// MarshalJSON emits {"type":"text","text":...}.
func (n TextNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "text", Text: n.Text})
}

// ImageNode is an inline image carried as a base64 data URI.
type ImageNode struct {
	// MIMEType is derived from the file extension (image/png, image/jpeg,
	// image/webp). Unrecognized image extensions fall back to image/jpeg.
	MIMEType string
	// Data is the base64 encoding of the original file bytes.
	Data string
}

// Kind implements ContentNode.
func (n ImageNode) Kind() ContentKind { return KindImage }

// DataURI returns the inline data URI for the image.
func (n ImageNode) DataURI() string {
	return "data:" + n.MIMEType + ";base64," + n.Data
}

// MarshalJSON emits {"type":"image_url","image_url":{"url":"data:..."}}.
func (n ImageNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}{
		Type: "image_url",
		ImageURL: struct {
			URL string `json:"url"`
		}{URL: n.DataURI()},
	})
}

// DocumentNode is an inline PDF document carried as a base64 data URI.
type DocumentNode struct {
	// Data is the base64 encoding of the original file bytes.
	Data string
	// Filename is the base name of the attached file.
	Filename string
}

// Kind implements ContentNode.
func (n DocumentNode) Kind() ContentKind { return KindDocument }

// DataURI returns the inline data URI for the document.
func (n DocumentNode) DataURI() string {
	return "data:application/pdf;base64," + n.Data
}

// MarshalJSON emits {"type":"file","file":{"file_data":...,"filename":...}}.
func (n DocumentNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		File struct {
			FileData string `json:"file_data"`
			Filename string `json:"filename"`
		} `json:"file"`
	}{
		Type: "file",
		File: struct {
			FileData string `json:"file_data"`
			Filename string `json:"filename"`
		}{FileData: n.DataURI(), Filename: n.Filename},
	})
}

// =============================================================================
// TURNS
// =============================================================================

// Turn is one message in the conversation history.
// Content is either plain text or an ordered node list, never both.
type Turn struct {
	Role Role

	text  string
	parts []ContentNode
	multi bool
}

// NewTextTurn creates a text-only turn.
func NewTextTurn(role Role, text string) Turn {
	return Turn{Role: role, text: text}
}

// NewMultimodalTurn creates a turn whose content is an ordered node list.
func NewMultimodalTurn(role Role, parts ...ContentNode) Turn {
	return Turn{Role: role, parts: parts, multi: true}
}

// IsMultimodal reports whether the turn carries a content-node list.
func (t Turn) IsMultimodal() bool { return t.multi }

// Text returns the plain-text content. For multimodal turns it returns the
// text of the leading TextNode, which by construction precedes any media.
func (t Turn) Text() string {
	if !t.multi {
		return t.text
	}
	for _, p := range t.parts {
		if tn, ok := p.(TextNode); ok {
			return tn.Text
		}
	}
	return ""
}

// Parts returns the content-node list for multimodal turns, nil otherwise.
func (t Turn) Parts() []ContentNode {
	if !t.multi {
		return nil
	}
	out := make([]ContentNode, len(t.parts))
	copy(out, t.parts)
	return out
}

// MarshalJSON serializes the turn as {role, content} where content is a bare
// string for text turns and the ordered node list for multimodal turns.
func (t Turn) MarshalJSON() ([]byte, error) {
	if t.multi {
		return json.Marshal(struct {
			Role    Role          `json:"role"`
			Content []ContentNode `json:"content"`
		}{Role: t.Role, Content: t.parts})
	}
	return json.Marshal(struct {
		Role    Role   `json:"role"`
		Content string `json:"content"`
	}{Role: t.Role, Content: t.text})
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the ordered, append-only conversation history for one session.
// It is owned by the session loop and never touched concurrently.
type Ledger struct {
	turns []Turn
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// AppendSystem inserts the single system turn. The first call wins; later
// calls are ignored so the system turn always appears first, exactly once.
func (l *Ledger) AppendSystem(prompt string) {
	if l.HasSystem() {
		return
	}
	l.turns = append([]Turn{NewTextTurn(RoleSystem, prompt)}, l.turns...)
}

// HasSystem reports whether the system turn is present.
func (l *Ledger) HasSystem() bool {
	return len(l.turns) > 0 && l.turns[0].Role == RoleSystem
}

// AppendUser appends a user turn. When node is nil the turn is plain text;
// otherwise the content list is [text, media], text always first.
func (l *Ledger) AppendUser(text string, node ContentNode) {
	if node == nil {
		l.turns = append(l.turns, NewTextTurn(RoleUser, text))
		return
	}
	l.turns = append(l.turns, NewMultimodalTurn(RoleUser, TextNode{Text: text}, node))
}

// AppendAssistant appends a text-only assistant turn. Empty text is never
// committed: a failed or empty reply leaves the ledger unchanged.
func (l *Ledger) AppendAssistant(text string) {
	if text == "" {
		return
	}
	l.turns = append(l.turns, NewTextTurn(RoleAssistant, text))
}

// DropLastUser removes a trailing user turn. The session loop calls this to
// roll back the in-flight turn when the request fails or is cancelled.
func (l *Ledger) DropLastUser() {
	if n := len(l.turns); n > 0 && l.turns[n-1].Role == RoleUser {
		l.turns = l.turns[:n-1]
	}
}

// Len returns the number of turns.
func (l *Ledger) Len() int { return len(l.turns) }

// Turns returns a copy of the history in conversation order.
func (l *Ledger) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Messages returns the ordered turn list exactly as stored. This is the
// request payload for the chat-completions endpoint.
func (l *Ledger) Messages() []Turn {
	return l.Turns()
}

// Reset clears the conversation but keeps the system turn when present.
func (l *Ledger) Reset() {
	if l.HasSystem() {
		l.turns = l.turns[:1]
		return
	}
	l.turns = l.turns[:0]
}

// =============================================================================
// SYSTEM PROMPT TEMPLATES
// =============================================================================

// Fixed system prompt templates, chosen by the content kind of the first
// user message in the session.
const (
	SystemPromptText = "You are a helpful assistant. Answer clearly and " +
		"concisely, using markdown formatting when it improves readability."

	SystemPromptImage = "You are a helpful assistant with vision. The user " +
		"attaches images to their messages; describe and reason about them " +
		"accurately, and say so plainly when something is not visible."

	SystemPromptDocument = "You are a helpful assistant. The user attaches " +
		"PDF documents to their messages; ground your answers in the " +
		"document content and quote it where useful."
)

// SystemPromptFor returns the template matching a content kind.
func SystemPromptFor(kind ContentKind) string {
	switch kind {
	case KindImage:
		return SystemPromptImage
	case KindDocument:
		return SystemPromptDocument
	default:
		return SystemPromptText
	}
}
