// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/google/uuid"
)

// Artifact is a piece of output content produced by an agent for a task,
// possibly delivered in chunks via TaskArtifactUpdateEvent.
type Artifact struct {
	// ArtifactID is unique within the owning task.
	ArtifactID string `json:"artifactId"`

	// Name is an optional human-readable label.
	Name string `json:"name,omitempty"`

	// Description optionally explains the artifact.
	Description string `json:"description,omitempty"`

	// Parts is the ordered content of the artifact.
	Parts Parts `json:"parts"`

	// Metadata is opaque agent data.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewTextArtifact creates an artifact with a generated ID and a single
// text part.
func NewTextArtifact(name, text string) *Artifact {
	return &Artifact{
		ArtifactID: uuid.NewString(),
		Name:       name,
		Parts:      Parts{NewTextPart(text)},
	}
}

// Validate ensures the artifact is well formed.
func (a *Artifact) Validate() error {
	if a.ArtifactID == "" {
		return fmt.Errorf("artifact ID cannot be empty")
	}
	if len(a.Parts) == 0 {
		return fmt.Errorf("artifact parts cannot be empty")
	}
	for i, part := range a.Parts {
		if part == nil {
			return fmt.Errorf("artifact part %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return fmt.Errorf("artifact part %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	out := *a
	out.Parts = append(Parts(nil), a.Parts...)
	if a.Metadata != nil {
		out.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
