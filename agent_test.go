// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "testing"

func TestAgentCardValidate(t *testing.T) {
	valid := &AgentCard{Name: "agent", URL: "http://localhost", Version: "1.0.0"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected a valid card, got %v", err)
	}

	tests := []struct {
		name string
		card *AgentCard
	}{
		{name: "missing name", card: &AgentCard{URL: "http://localhost", Version: "1.0.0"}},
		{name: "missing url", card: &AgentCard{Name: "agent", Version: "1.0.0"}},
		{name: "missing version", card: &AgentCard{Name: "agent", URL: "http://localhost"}},
		{name: "skill without id", card: &AgentCard{
			Name: "agent", URL: "http://localhost", Version: "1.0.0",
			Skills: []AgentSkill{{Name: "echo"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.card.Validate(); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestAgentCardAcceptsInputMode(t *testing.T) {
	open := &AgentCard{Name: "agent", URL: "http://localhost", Version: "1.0.0"}
	if !open.AcceptsInputMode("image/png") {
		t.Error("Expected an empty mode list to accept everything")
	}

	wildcard := &AgentCard{DefaultInputModes: []string{"*/*"}}
	if !wildcard.AcceptsInputMode("image/png") {
		t.Error("Expected */* to accept everything")
	}

	strict := &AgentCard{DefaultInputModes: []string{"text/plain", "application/pdf"}}
	if !strict.AcceptsInputMode("application/pdf") {
		t.Error("Expected a listed mode to be accepted")
	}
	if strict.AcceptsInputMode("image/png") {
		t.Error("Expected an unlisted mode to be rejected")
	}
}
