// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedgerSystemFirstWins(t *testing.T) {
	l := NewLedger()
	l.AppendUser("hello", nil)
	l.AppendSystem("first prompt")
	l.AppendSystem("second prompt")

	turns := l.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, RoleSystem, turns[0].Role)
	require.Equal(t, "first prompt", turns[0].Text())
	require.Equal(t, RoleUser, turns[1].Role)
	require.True(t, l.HasSystem())
}

func TestLedgerAlternation(t *testing.T) {
	l := NewLedger()
	l.AppendSystem(SystemPromptText)
	l.AppendUser("q1", nil)
	l.AppendAssistant("a1")
	l.AppendUser("q2", nil)
	l.AppendAssistant("a2")

	turns := l.Turns()
	require.Len(t, turns, 5)
	want := []Role{RoleSystem, RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	for i, r := range want {
		require.Equal(t, r, turns[i].Role, "turn %d", i)
	}
}

func TestLedgerEmptyAssistantNotCommitted(t *testing.T) {
	l := NewLedger()
	l.AppendUser("q", nil)
	l.AppendAssistant("")
	require.Equal(t, 1, l.Len())
}

func TestLedgerDropLastUser(t *testing.T) {
	l := NewLedger()
	l.AppendSystem(SystemPromptText)
	l.AppendUser("q1", nil)
	l.AppendAssistant("a1")
	l.AppendUser("cancelled", nil)

	l.DropLastUser()
	require.Equal(t, 3, l.Len())
	require.Equal(t, RoleAssistant, l.Turns()[2].Role)

	// A trailing assistant turn is never dropped.
	l.DropLastUser()
	require.Equal(t, 3, l.Len())
}

func TestLedgerResetKeepsSystem(t *testing.T) {
	l := NewLedger()
	l.AppendSystem(SystemPromptText)
	l.AppendUser("q", nil)
	l.AppendAssistant("a")

	l.Reset()
	require.Equal(t, 1, l.Len())
	require.True(t, l.HasSystem())

	empty := NewLedger()
	empty.AppendUser("q", nil)
	empty.Reset()
	require.Equal(t, 0, empty.Len())
}

func TestLedgerMultimodalUserOrder(t *testing.T) {
	l := NewLedger()
	l.AppendUser("what is this", ImageNode{MIMEType: "image/png", Data: "AAAA"})

	turns := l.Turns()
	require.Len(t, turns, 1)
	require.True(t, turns[0].IsMultimodal())

	parts := turns[0].Parts()
	require.Len(t, parts, 2)
	require.Equal(t, KindText, parts[0].Kind())
	require.Equal(t, KindImage, parts[1].Kind())
	require.Equal(t, "what is this", turns[0].Text())
}

func TestTextTurnWireFormat(t *testing.T) {
	turn := NewTextTurn(RoleUser, "hello")
	data, err := json.Marshal(turn)
	require.NoError(t, err)
	require.JSONEq(t, `{"role":"user","content":"hello"}`, string(data))
}

func TestImageTurnWireFormat(t *testing.T) {
	turn := NewMultimodalTurn(RoleUser,
		TextNode{Text: "describe"},
		ImageNode{MIMEType: "image/png", Data: "aGk="})

	data, err := json.Marshal(turn)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"role": "user",
		"content": [
			{"type": "text", "text": "describe"},
			{"type": "image_url", "image_url": {"url": "data:image/png;base64,aGk="}}
		]
	}`, string(data))
}

func TestDocumentTurnWireFormat(t *testing.T) {
	turn := NewMultimodalTurn(RoleUser,
		TextNode{Text: "summarize"},
		DocumentNode{Data: "aGk=", Filename: "report.pdf"})

	data, err := json.Marshal(turn)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"role": "user",
		"content": [
			{"type": "text", "text": "summarize"},
			{"type": "file", "file": {"file_data": "data:application/pdf;base64,aGk=", "filename": "report.pdf"}}
		]
	}`, string(data))
}

func TestMessagesRoundTrip(t *testing.T) {
	l := NewLedger()
	l.AppendSystem(SystemPromptText)
	l.AppendUser("q", nil)
	l.AppendAssistant("a")

	data, err := json.Marshal(l.Messages())
	require.NoError(t, err)

	var decoded []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 3)
	require.Equal(t, "system", decoded[0].Role)
	require.Equal(t, "a", decoded[2].Content)
}

func TestSystemPromptFor(t *testing.T) {
	require.Equal(t, SystemPromptText, SystemPromptFor(KindText))
	require.Equal(t, SystemPromptImage, SystemPromptFor(KindImage))
	require.Equal(t, SystemPromptDocument, SystemPromptFor(KindDocument))
}
