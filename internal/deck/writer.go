// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package deck serializes validated card records to delimited deck files and
// merges per-document decks into a master deck.
package deck

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pdiddy/deck-engine/pkg/types"
)

// Delimiter separates deck columns. Pipe avoids conflicts with the commas
// card text naturally contains.
const Delimiter = '|'

// WriteCards writes one row per record to path: columns main_content,
// extra_field, importance_value, pipe-delimited, minimally quoted, LF line
// endings, no header.
func WriteCards(path string, records []types.Card) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = Delimiter
	for _, record := range records {
		if err := w.Write([]string{record.MainContent, record.ExtraField, record.ImportanceValue}); err != nil {
			return fmt.Errorf("writing row to %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}
