// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare array",
			input: `[{"a": 1}]`,
			want:  `[{"a": 1}]`,
		},
		{
			name:  "code fence with prose around it",
			input: "Here are your cards:\n```json\n[{\"main_content\": \"Q\"}]\n```\nThanks!",
			want:  `[{"main_content": "Q"}]`,
		},
		{
			name:  "fence without language tag",
			input: "```\n{\"x\": true}\n```",
			want:  `{"x": true}`,
		},
		{
			name:  "prose before bare JSON",
			input: `The result is [1, 2, 3] as requested.`,
			want:  `[1, 2, 3]`,
		},
		{
			name:  "false start then real value",
			input: `unbalanced [ bracket first, then {"ok": "yes"} wins`,
			want:  `{"ok": "yes"}`,
		},
		{
			name:  "trailing prose ignored",
			input: `{"done": 1} and that concludes the deck`,
			want:  `{"done": 1}`,
		},
		{
			name:    "no JSON at all",
			input:   "I could not produce any cards for this document.",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "   \n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONPayload(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodePayload(t *testing.T) {
	value, err := DecodePayload("```json\n[{\"main_content\": \"Q\"}]\n```")
	require.NoError(t, err)

	list, ok := value.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	obj := list[0].(map[string]any)
	assert.Equal(t, "Q", obj["main_content"])
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "plain", stripCodeFences("plain"))
	assert.Equal(t, `[1]`, stripCodeFences("```json\n[1]\n```"))
	assert.Equal(t, "no closing ``` fence", stripCodeFences("no closing ``` fence"))
}
