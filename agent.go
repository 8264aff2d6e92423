// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "fmt"

// AgentCapabilities declares optional protocol features of an agent.
// Streaming gates message/stream and tasks/resubscribe; PushNotifications
// gates tasks/pushNotificationConfig/*.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentProvider identifies the organization serving an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

// AgentSkill describes one unit of capability an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// Validate ensures the skill carries its identifiers.
func (s *AgentSkill) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("agent skill ID cannot be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("agent skill name cannot be empty")
	}
	return nil
}

// AgentCard is the discovery document describing an agent: identity,
// capabilities, skills, and accepted content modes. It is served as a
// static document by transports at /.well-known/agent-card.json.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Provider           *AgentProvider    `json:"provider,omitempty"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty"`
	Skills             []AgentSkill      `json:"skills,omitempty"`
}

// Validate ensures the card carries its required fields.
func (c *AgentCard) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent card name cannot be empty")
	}
	if c.URL == "" {
		return fmt.Errorf("agent card URL cannot be empty")
	}
	if c.Version == "" {
		return fmt.Errorf("agent card version cannot be empty")
	}
	for i := range c.Skills {
		if err := c.Skills[i].Validate(); err != nil {
			return fmt.Errorf("agent skill %d: %w", i, err)
		}
	}
	return nil
}

// AcceptsInputMode reports whether the card accepts the given MIME type as
// input. An empty mode list or a "*/*" entry accepts everything.
func (c *AgentCard) AcceptsInputMode(mimeType string) bool {
	if len(c.DefaultInputModes) == 0 {
		return true
	}
	for _, mode := range c.DefaultInputModes {
		if mode == "*/*" || mode == mimeType {
			return true
		}
	}
	return false
}
