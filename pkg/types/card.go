// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentState is the lifecycle position of one intake document. State
// changes are directory moves, owned exclusively by the pipeline coordinator.
type DocumentState string

const (
	StateRaw       DocumentState = "raw"
	StateSanitized DocumentState = "sanitized"
	StateExtracted DocumentState = "extracted"
	StateConverted DocumentState = "converted"
	StateDone      DocumentState = "done"
	StateError     DocumentState = "error"
)

// Card is one validated flashcard record. All three fields are present and
// non-empty-typed before CSV emission; ImportanceValue accumulates
// space-separated tags.
type Card struct {
	// MainContent is the question or cloze text.
	MainContent string `json:"main_content" yaml:"main_content"`

	// ExtraField holds supplemental content shown with the answer.
	ExtraField string `json:"extra_field" yaml:"extra_field"`

	// ImportanceValue is a space-separated tag accumulator.
	ImportanceValue string `json:"importance_value" yaml:"importance_value"`
}
