// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
)

// Role identifies the originator of a Message.
type Role string

const (
	// RoleUser marks a message sent by the calling client.
	RoleUser Role = "user"

	// RoleAgent marks a message produced by the agent.
	RoleAgent Role = "agent"
)

// Valid reports whether r is a defined role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent
}

// Part is one content unit within a Message or Artifact. It is a closed
// tagged union over exactly [TextPart], [FilePart], and [DataPart]; the
// wire discriminator is the "kind" field.
type Part interface {
	// PartKind returns the wire discriminator of the part.
	PartKind() string

	// Validate ensures the part is in a valid state.
	Validate() error
}

// Part kind discriminators.
const (
	PartKindText = "text"
	PartKindFile = "file"
	PartKindData = "data"
)

// TextPart carries plain text content.
type TextPart struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var _ Part = (*TextPart)(nil)

// PartKind implements [Part].
func (*TextPart) PartKind() string { return PartKindText }

// Validate implements [Part].
func (p *TextPart) Validate() error {
	if p.Text == "" {
		return fmt.Errorf("text part text cannot be empty")
	}
	return nil
}

// MarshalJSON implements json.Marshaler, adding the "kind" discriminator.
func (p *TextPart) MarshalJSON() ([]byte, error) {
	type wire TextPart
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*wire
	}{Kind: PartKindText, wire: (*wire)(p)})
}

// FileContent is the payload of a [FilePart]. Exactly one of Bytes
// (base64-encoded content) or URI must be set.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Validate ensures exactly one of Bytes or URI is present.
func (f *FileContent) Validate() error {
	switch {
	case f.Bytes != "" && f.URI != "":
		return fmt.Errorf("file content cannot have both bytes and uri")
	case f.Bytes == "" && f.URI == "":
		return fmt.Errorf("file content must have either bytes or uri")
	}
	return nil
}

// FilePart carries file content, inline or by reference.
type FilePart struct {
	File     FileContent    `json:"file"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var _ Part = (*FilePart)(nil)

// PartKind implements [Part].
func (*FilePart) PartKind() string { return PartKindFile }

// Validate implements [Part].
func (p *FilePart) Validate() error {
	return p.File.Validate()
}

// MarshalJSON implements json.Marshaler, adding the "kind" discriminator.
func (p *FilePart) MarshalJSON() ([]byte, error) {
	type wire FilePart
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*wire
	}{Kind: PartKindFile, wire: (*wire)(p)})
}

// DataPart carries an arbitrary structured object.
type DataPart struct {
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var _ Part = (*DataPart)(nil)

// PartKind implements [Part].
func (*DataPart) PartKind() string { return PartKindData }

// Validate implements [Part].
func (p *DataPart) Validate() error {
	if p.Data == nil {
		return fmt.Errorf("data part data cannot be nil")
	}
	return nil
}

// MarshalJSON implements json.Marshaler, adding the "kind" discriminator.
func (p *DataPart) MarshalJSON() ([]byte, error) {
	type wire DataPart
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*wire
	}{Kind: PartKindData, wire: (*wire)(p)})
}

// NewTextPart creates a text part.
func NewTextPart(text string) *TextPart {
	return &TextPart{Text: text}
}

// NewFilePartFromBytes creates a file part from base64-encoded content.
func NewFilePartFromBytes(name, mimeType, data string) *FilePart {
	return &FilePart{File: FileContent{Name: name, MIMEType: mimeType, Bytes: data}}
}

// NewFilePartFromURI creates a file part referencing external content.
func NewFilePartFromURI(name, mimeType, uri string) *FilePart {
	return &FilePart{File: FileContent{Name: name, MIMEType: mimeType, URI: uri}}
}

// NewDataPart creates a data part.
func NewDataPart(data map[string]any) *DataPart {
	return &DataPart{Data: data}
}

// Parts is an ordered sequence of [Part] with kind-dispatched decoding.
type Parts []Part

// UnmarshalJSON implements json.Unmarshaler, dispatching each element on
// its "kind" field.
func (ps *Parts) UnmarshalJSON(data []byte) error {
	var raws []jsontext.Value
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	parts := make(Parts, 0, len(raws))
	for i, raw := range raws {
		part, err := unmarshalPart(raw)
		if err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
		parts = append(parts, part)
	}
	*ps = parts
	return nil
}

// UnmarshalPart decodes a single part from its wire form.
func UnmarshalPart(data []byte) (Part, error) {
	return unmarshalPart(data)
}

func unmarshalPart(data []byte) (Part, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	var part Part
	switch probe.Kind {
	case PartKindText:
		part = new(TextPart)
	case PartKindFile:
		part = new(FilePart)
	case PartKindData:
		part = new(DataPart)
	default:
		return nil, fmt.Errorf("unknown part kind %q", probe.Kind)
	}

	// The concrete types have no custom unmarshaler, so this decodes the
	// remaining fields directly.
	switch p := part.(type) {
	case *TextPart:
		type wire TextPart
		if err := json.Unmarshal(data, (*wire)(p)); err != nil {
			return nil, err
		}
	case *FilePart:
		type wire FilePart
		if err := json.Unmarshal(data, (*wire)(p)); err != nil {
			return nil, err
		}
	case *DataPart:
		type wire DataPart
		if err := json.Unmarshal(data, (*wire)(p)); err != nil {
			return nil, err
		}
	}

	if err := part.Validate(); err != nil {
		return nil, err
	}
	return part, nil
}

// Message is a single communication turn between a caller and an agent.
type Message struct {
	// MessageID is the caller-assigned unique identifier of the message.
	MessageID string `json:"messageId"`

	// Role identifies the sender.
	Role Role `json:"role"`

	// Parts is the non-empty ordered content of the message.
	Parts Parts `json:"parts"`

	// TaskID optionally associates the message with a task.
	TaskID string `json:"taskId,omitempty"`

	// ContextID optionally groups the message with related tasks.
	ContextID string `json:"contextId,omitempty"`

	// ReferenceTaskIDs optionally lists related tasks.
	ReferenceTaskIDs []string `json:"referenceTaskIds,omitempty"`

	// Metadata is opaque caller data.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Kind is always [KindMessage] on the wire.
	Kind string `json:"kind,omitempty"`
}

// NewUserMessage creates a user message with a generated message ID.
func NewUserMessage(parts ...Part) *Message {
	return &Message{
		MessageID: uuid.NewString(),
		Role:      RoleUser,
		Parts:     parts,
		Kind:      KindMessage,
	}
}

// NewAgentMessage creates an agent message with a generated message ID.
func NewAgentMessage(parts ...Part) *Message {
	return &Message{
		MessageID: uuid.NewString(),
		Role:      RoleAgent,
		Parts:     parts,
		Kind:      KindMessage,
	}
}

// Validate ensures the message is well formed.
func (m *Message) Validate() error {
	if m.MessageID == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if !m.Role.Valid() {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message parts cannot be empty")
	}
	for i, part := range m.Parts {
		if part == nil {
			return fmt.Errorf("message part %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return fmt.Errorf("message part %d: %w", i, err)
		}
	}
	return nil
}

// TextContent concatenates the text of all text parts, separated by
// newlines. Non-text parts are skipped.
func (m *Message) TextContent() string {
	var out string
	for _, part := range m.Parts {
		if tp, ok := part.(*TextPart); ok {
			if out != "" {
				out += "\n"
			}
			out += tp.Text
		}
	}
	return out
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	out.Parts = append(Parts(nil), m.Parts...)
	out.ReferenceTaskIDs = append([]string(nil), m.ReferenceTaskIDs...)
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
