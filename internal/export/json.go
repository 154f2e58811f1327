// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package export

import (
	"encoding/json"
	"fmt"

	"github.com/tt-a1i/gpt/internal/model"
)

// JSONExporter exports transcripts to JSON. JSON exports always include
// the complete transcript so the output is a faithful representation
// that can be loaded back with /load.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter. Options are accepted for
// consistency with the other exporters but do not filter JSON output.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *model.Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	return json.MarshalIndent(t, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
