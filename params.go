// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "fmt"

// MessageSendConfiguration controls how a sent message is processed.
type MessageSendConfiguration struct {
	// AcceptedOutputModes lists MIME types the caller can consume.
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`

	// HistoryLength windows the history of the returned task.
	HistoryLength *int `json:"historyLength,omitempty"`

	// PushNotificationConfig registers a webhook for this task.
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`

	// Blocking requests that the call wait for task completion.
	Blocking bool `json:"blocking,omitempty"`
}

// MessageSendParams are the parameters of message/send and message/stream.
type MessageSendParams struct {
	Message       *Message                  `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// Validate ensures the params carry a valid message.
func (p *MessageSendParams) Validate() error {
	if p.Message == nil {
		return fmt.Errorf("message cannot be nil")
	}
	return p.Message.Validate()
}

// TaskQueryParams are the parameters of tasks/get and tasks/resubscribe.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength *int           `json:"historyLength,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Validate ensures the params carry a task ID.
func (p *TaskQueryParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if p.HistoryLength != nil && *p.HistoryLength < 0 {
		return fmt.Errorf("history length cannot be negative")
	}
	return nil
}

// TaskIDParams are the parameters of tasks/cancel and
// tasks/pushNotificationConfig/get.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate ensures the params carry a task ID.
func (p *TaskIDParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return nil
}

// AuthenticationInfo describes how a push notification endpoint expects to
// be authenticated. Credential construction is the caller's concern; the
// core only carries the schemes and an opaque credential hint.
type AuthenticationInfo struct {
	Schemes     []string `json:"schemes"`
	Credentials string   `json:"credentials,omitempty"`
}

// PushNotificationConfig is a webhook registration for task updates.
type PushNotificationConfig struct {
	// URL is the endpoint to POST task events to.
	URL string `json:"url"`

	// Token is an opaque caller token echoed on every delivery.
	Token string `json:"token,omitempty"`

	// Authentication describes the endpoint's authentication scheme.
	Authentication *AuthenticationInfo `json:"authentication,omitempty"`
}

// Validate ensures the config carries a URL.
func (c *PushNotificationConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("push notification URL cannot be empty")
	}
	return nil
}

// TaskPushNotificationConfig binds a push notification config to a task.
// It is both the params and the result of tasks/pushNotificationConfig/set.
type TaskPushNotificationConfig struct {
	TaskID                 string                 `json:"taskId"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// Validate ensures both the task ID and the config are present.
func (c *TaskPushNotificationConfig) Validate() error {
	if c.TaskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return c.PushNotificationConfig.Validate()
}
