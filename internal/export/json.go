// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/nova-tui/internal/attachment"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter renders transcripts as indented JSON. Options other than
// IncludeTimestamps are ignored; the document always carries full metadata.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonImage struct {
	MIMEType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
}

type jsonMessage struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
	Content   string      `json:"content"`
	Images    []jsonImage `json:"images,omitempty"`
	Streaming bool        `json:"streaming,omitempty"`
}

type jsonDocument struct {
	*Transcript
	ExportedAt time.Time     `json:"exported_at"`
	Messages   []jsonMessage `json:"messages"`
}

// Export renders t. Image payloads are replaced by type and size.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		Transcript: t,
		ExportedAt: time.Now(),
		Messages:   make([]jsonMessage, 0, len(t.Messages)),
	}
	for i := range t.Messages {
		m := &t.Messages[i]
		jm := jsonMessage{
			ID:        m.ID,
			Role:      m.Role.String(),
			Content:   m.Text(),
			Streaming: m.IsStreaming,
		}
		if e.options.IncludeTimestamps && !m.Timestamp.IsZero() {
			ts := m.Timestamp
			jm.Timestamp = &ts
		}
		for _, uri := range m.Images {
			img, err := attachment.Parse(uri)
			if err != nil {
				continue
			}
			jm.Images = append(jm.Images, jsonImage{MIMEType: img.MIMEType, Bytes: len(img.Data)})
		}
		doc.Messages = append(doc.Messages, jm)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
