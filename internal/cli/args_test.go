// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"reflect"
	"testing"
)

func TestArgParserFlagForms(t *testing.T) {
	p := NewArgParser([]string{"--model", "gpt-4o", "--file=doc.pdf", "--plain", "hello", "world"})

	if got := p.Flag("model"); got != "gpt-4o" {
		t.Errorf("Flag(model) = %q", got)
	}
	if got := p.Flag("file"); got != "doc.pdf" {
		t.Errorf("Flag(file) = %q", got)
	}
	if !p.BoolFlag("plain") {
		t.Error("BoolFlag(plain) should be true")
	}
	if got := p.Positional(); !reflect.DeepEqual(got, []string{"hello", "world"}) {
		t.Errorf("Positional() = %v", got)
	}
}

func TestArgParserBoolFlagDoesNotEatValue(t *testing.T) {
	p := NewArgParser([]string{"--quiet", "my", "prompt"})
	if !p.BoolFlag("quiet") {
		t.Error("quiet should be boolean")
	}
	if got := p.Positional(); !reflect.DeepEqual(got, []string{"my", "prompt"}) {
		t.Errorf("prompt words consumed by boolean flag: %v", got)
	}
}

func TestArgParserEqualsBool(t *testing.T) {
	p := NewArgParser([]string{"--plain=true", "--quiet=false"})
	if !p.BoolFlag("plain") {
		t.Error("plain=true should set the flag")
	}
	if p.BoolFlag("quiet") {
		t.Error("quiet=false should leave the flag unset")
	}
}

func TestParseCommandDispatch(t *testing.T) {
	tests := []struct {
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{nil, "chat", nil},
		{[]string{"chat"}, "chat", []string{}},
		{[]string{"chat", "--model", "m"}, "chat", []string{"--model", "m"}},
		{[]string{"ask", "what", "is", "go"}, "ask", []string{"what", "is", "go"}},
		{[]string{"version"}, "version", []string{}},
		{[]string{"help"}, "help", []string{}},
		// Flag-leading input selects the default command.
		{[]string{"--model", "m"}, "chat", []string{"--model", "m"}},
		// Bare words become an ask prompt.
		{[]string{"what", "is", "go"}, "ask", []string{"what", "is", "go"}},
	}
	for _, tt := range tests {
		cmd, rest := Parse(tt.args)
		if cmd != tt.wantCmd {
			t.Errorf("Parse(%v) cmd = %q, want %q", tt.args, cmd, tt.wantCmd)
		}
		if len(rest) != len(tt.wantRest) {
			t.Errorf("Parse(%v) rest = %v, want %v", tt.args, rest, tt.wantRest)
			continue
		}
		for i := range rest {
			if rest[i] != tt.wantRest[i] {
				t.Errorf("Parse(%v) rest = %v, want %v", tt.args, rest, tt.wantRest)
				break
			}
		}
	}
}
